package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/session"
	"github.com/smallyu/go-maci-signer/internal/transport"
)

type PairCommand struct {
	g *Globals

	Relay   string `long:"relay" env:"RELAY" default:"ws://127.0.0.1:8080" description:"relay URL (ws://, wss:// or tcp://)"`
	History int    `long:"history" env:"HISTORY" default:"100" description:"inbound messages kept in memory"`

	Args struct {
		PeerID string `positional-arg-name:"peer-id" required:"yes" description:"peer id shown by the voting session"`
	} `positional-args:"yes"`
}

func (c *PairCommand) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := c.g.logger()

	p, err := c.g.params()
	if err != nil {
		return err
	}
	p.RelayURL = c.Relay
	p.HistoryCap = c.History

	ks, err := c.g.openKeys(p, log)
	if err != nil {
		return err
	}

	ch, err := transport.Dial(ctx, p.RelayURL)
	if err != nil {
		return err
	}

	states := make(chan session.State, 64)
	sess := session.New(ch, ks,
		session.WithLogger(log),
		session.WithParameters(p),
		session.WithObserver(func(s session.State) {
			select {
			case states <- s:
			default:
			}
		}),
	)

	errc := make(chan error, 1)
	go func() { errc <- sess.Run(ctx) }()

	if err := sess.Connect(ctx, c.Args.PeerID); err != nil {
		return err
	}
	log.Info().Str("peer", c.Args.PeerID).Str("relay", p.RelayURL).Msg("pairing requested")

	answers := readLines(c.g.in)
	paired := false

	for {
		select {
		case err := <-errc:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err

		case s := <-states:
			c.show(s)
			if s.PeerID() != "" {
				paired = true
			} else if paired {
				// The peer confirmed the disconnect.
				stop()
				<-errc
				return nil
			}

		case line, ok := <-answers:
			if !ok {
				answers = nil
				continue
			}
			if err := c.answer(ctx, sess, line); err != nil {
				log.Warn().Err(err).Msg("could not answer request")
			}
		}
	}
}

func (c *PairCommand) show(s session.State) {
	req, ok := s.Request.Pending()
	if !ok {
		if s.PeerID() == "" {
			c.g.printf("not paired\n")
		} else {
			c.g.printf("paired with %s, waiting for requests\n", s.PeerID())
		}
		return
	}
	c.g.printf("request %s: poll %s %q, option %q\napprove? [y/N] ",
		req.SignatureID, req.Data.PollID, req.Data.Title, req.Data.SelectedOption)
}

func (c *PairCommand) answer(ctx context.Context, sess *session.Session, line string) error {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return sess.Approve(ctx)
	case "q", "quit":
		return sess.Disconnect(ctx)
	default:
		return sess.Reject(ctx)
	}
}

func readLines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			out <- sc.Text()
		}
	}()
	return out
}
