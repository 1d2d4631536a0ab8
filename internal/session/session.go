// Package session drives the signer's side of the pairing protocol.
//
// All protocol state lives in a State value advanced by Reduce. A Session owns
// one Channel and runs a single loop that applies inbound frames and local
// actions one at a time, in arrival order.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/smallyu/go-maci-signer/internal/keys"
	"github.com/smallyu/go-maci-signer/internal/protocol/wire"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// DefaultHistoryCap bounds the inbound history when no cap is configured.
const DefaultHistoryCap = 100

// KeySource yields the keypair used for pairing and signing.
type KeySource interface {
	Active() (keys.Keypair, error)
}

type command struct {
	ev    Event
	reply chan error
}

// Session is the actor owning the channel and the protocol state.
type Session struct {
	ch   signer.Channel
	keys KeySource

	log        zerolog.Logger
	historyCap int
	observer   func(State)

	cmds chan command
	done chan struct{}
	once sync.Once

	mu      sync.RWMutex
	state   State
	history []wire.Message
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithHistoryCap bounds how many inbound messages History keeps.
func WithHistoryCap(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.historyCap = n
		}
	}
}

// WithObserver registers fn to be called from the session loop after every
// state change. fn must not call back into the Session.
func WithObserver(fn func(State)) Option {
	return func(s *Session) { s.observer = fn }
}

// WithParameters applies the session-related fields of p.
func WithParameters(p signer.Parameters) Option {
	return WithHistoryCap(p.HistoryCap)
}

func New(ch signer.Channel, ks KeySource, opts ...Option) *Session {
	s := &Session{
		ch:         ch,
		keys:       ks,
		log:        zerolog.Nop(),
		historyCap: DefaultHistoryCap,
		cmds:       make(chan command),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes frames and local actions until ctx is done or the channel is
// lost. Either way the state is reset to disconnected and the channel closed.
// Losing the channel returns an error wrapping signer.ErrChannel. Run may only
// be called once.
func (s *Session) Run(ctx context.Context) error {
	first := false
	s.once.Do(func() { first = true })
	if !first {
		return errors.Wrap(signer.ErrSessionClosed, "session already ran")
	}

	ctx, cancel := context.WithCancel(ctx)

	frames := make(chan []byte)
	recvErr := make(chan error, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			frame, err := s.ch.Recv(ctx)
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	defer func() {
		cancel()
		s.ch.Close()
		wg.Wait()
		close(s.done)
	}()

	s.log.Debug().Msg("session started")

	for {
		select {
		case <-ctx.Done():
			s.apply(ChannelClosed{Err: ctx.Err()})
			s.log.Debug().Msg("session stopped")
			return ctx.Err()

		case err := <-recvErr:
			return s.channelLost(ctx, err)

		case frame := <-frames:
			s.handleFrame(frame)

		case cmd := <-s.cmds:
			err := s.handleCommand(ctx, cmd.ev)
			cmd.reply <- err
			if ctx.Err() != nil {
				s.log.Debug().Msg("session stopped")
				return ctx.Err()
			}
			if errors.Is(err, signer.ErrChannel) {
				return err
			}
		}
	}
}

func (s *Session) channelLost(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		s.apply(ChannelClosed{Err: ctx.Err()})
		return ctx.Err()
	}
	s.apply(ChannelClosed{Err: err})
	s.log.Warn().Err(err).Msg("channel closed")
	if errors.Is(err, signer.ErrChannel) {
		return err
	}
	return errors.Wrap(signer.ErrChannel, err.Error())
}

func (s *Session) handleFrame(frame []byte) {
	msg, err := wire.Decode(frame)
	if err != nil {
		s.log.Warn().Err(err).Str("peer", s.State().PeerID()).Msg("ignoring undecodable frame")
		return
	}
	s.record(msg)

	prev := s.State()
	if _, err := s.apply(Inbound{Message: msg}); err != nil {
		var pe *signer.PeerError
		if errors.As(err, &pe) {
			s.log.Warn().Str("peer", pe.PeerID).Str("reason", pe.Reason).Err(pe.Err).Msg("ignoring frame")
		} else {
			s.log.Warn().Err(err).Msg("ignoring frame")
		}
		return
	}
	next := s.State()

	switch {
	case msg.Action == wire.ActionSign && prev.PendingID() != "":
		s.log.Info().Str("dropped", prev.PendingID()).Str("pending", next.PendingID()).Msg("signature request replaced")
	case msg.Action == wire.ActionSign:
		s.log.Info().Str("pending", next.PendingID()).Str("title", msg.Data.Title).Msg("signature request received")
	case msg.Action == wire.ActionCancelSignatureRequest && prev == next:
		s.log.Debug().Str("signatureId", msg.SignatureID).Msg("cancellation does not match pending request")
	case prev.PeerID() != next.PeerID():
		s.log.Info().Str("peer", next.PeerID()).Str("was", prev.PeerID()).Msg("pairing changed")
	default:
		s.log.Debug().Str("action", string(msg.Action)).Msg("frame applied")
	}
}

func (s *Session) handleCommand(ctx context.Context, ev Event) error {
	out, err := s.apply(ev)
	if err != nil {
		return err
	}
	if err := s.send(ctx, out); err != nil {
		if ctx.Err() != nil {
			s.apply(ChannelClosed{Err: ctx.Err()})
			return ctx.Err()
		}
		s.apply(ChannelClosed{Err: err})
		s.log.Warn().Err(err).Msg("channel lost while sending")
		if !errors.Is(err, signer.ErrChannel) {
			err = errors.Wrap(signer.ErrChannel, err.Error())
		}
		return err
	}
	return nil
}

// apply reduces ev into the current state and notifies the observer.
func (s *Session) apply(ev Event) ([]wire.Message, error) {
	s.mu.Lock()
	prev := s.state
	next, out, err := Reduce(prev, ev)
	if err == nil {
		s.state = next
	}
	s.mu.Unlock()

	if err == nil && next != prev && s.observer != nil {
		s.observer(next)
	}
	return out, err
}

func (s *Session) send(ctx context.Context, out []wire.Message) error {
	for _, m := range out {
		frame, err := wire.Encode(m)
		if err != nil {
			return err
		}
		if err := s.ch.Send(ctx, frame); err != nil {
			return err
		}
		s.log.Debug().Str("action", string(m.Action)).Msg("frame sent")
	}
	return nil
}

func (s *Session) record(m wire.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, m)
	if over := len(s.history) - s.historyCap; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// submit hands ev to the session loop and waits for it to be applied.
func (s *Session) submit(ctx context.Context, ev Event) error {
	cmd := command{ev: ev, reply: make(chan error, 1)}

	select {
	case s.cmds <- cmd:
	case <-s.done:
		return signer.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect asks the relay to pair with peerID using the active public key.
// The session reports the peer as connected only once it confirms.
func (s *Session) Connect(ctx context.Context, peerID string) error {
	kp, err := s.keys.Active()
	if err != nil {
		return err
	}
	return s.submit(ctx, Connect{PeerID: peerID, PublicKey: kp.PubKey().Serialize()})
}

// Disconnect asks the peer to unpair. The state resets on the peer's echo.
func (s *Session) Disconnect(ctx context.Context) error {
	return s.submit(ctx, Disconnect{})
}

// Approve signs the pending request with the active keypair.
func (s *Session) Approve(ctx context.Context) error {
	kp, err := s.keys.Active()
	if err != nil {
		return err
	}
	return s.submit(ctx, Approve{Signer: kp})
}

// Reject declines the pending request.
func (s *Session) Reject(ctx context.Context) error {
	return s.submit(ctx, Reject{})
}

// State returns a snapshot of the protocol state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// History returns the most recent inbound messages, oldest first.
func (s *Session) History() []wire.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]wire.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
