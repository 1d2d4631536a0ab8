// Package keystore keeps the ordered list of MACI keypairs and the in-session
// selection, persisted as a JSON array of serialized private keys.
package keystore

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/smallyu/go-maci-signer/internal/keys"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// StorageKey is the well-known key the serialized key list lives under.
const StorageKey = "keys"

// Store is an append-only list of keypairs with an active selection.
// Only the list is persisted; the selection lives for the session.
type Store struct {
	mu       sync.RWMutex
	blobs    signer.BlobStore
	rand     io.Reader
	log      zerolog.Logger
	keypairs []keys.Keypair
	selected int
	loaded   bool
}

// Option configures a Store.
type Option func(*Store)

// WithRand overrides the randomness source used for new keys.
func WithRand(r io.Reader) Option {
	return func(s *Store) { s.rand = r }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates an empty store backed by blobs. Call LoadOrInit before use.
func New(blobs signer.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:    blobs,
		rand:     rand.Reader,
		log:      zerolog.Nop(),
		selected: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadOrInit restores the persisted key list. When nothing usable is stored it
// bootstraps exactly one fresh keypair. Either way index 0 ends up selected.
// An error is only returned when the bootstrap keypair could not be generated
// or persisted; in the latter case the keypair is still usable in memory.
func (s *Store) LoadOrInit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, err := s.restore()
	if err == nil {
		s.keypairs = restored
		s.selected = 0
		s.loaded = true
		s.log.Info().Int("keypairs", len(restored)).Msg("restored keypairs")
		return nil
	}

	s.log.Warn().Err(err).Msg("no usable keypairs in storage, generating a new one")

	kp, err := keys.GenKeypair(s.rand)
	if err != nil {
		return err
	}
	s.keypairs = []keys.Keypair{kp}
	s.selected = 0
	s.loaded = true

	if err := s.persist(s.keypairs); err != nil {
		s.log.Error().Err(err).Msg("failed to persist bootstrap keypair")
		return err
	}
	s.log.Info().Str("pubkey", kp.PubKey().Serialize()).Msg("bootstrapped keypair")
	return nil
}

func (s *Store) restore() ([]keys.Keypair, error) {
	raw, err := s.blobs.Get(StorageKey)
	if err != nil {
		return nil, errors.Wrapf(signer.ErrStorageRead, "read %q: %v", StorageKey, err)
	}

	var serialized []string
	if err := json.Unmarshal(raw, &serialized); err != nil {
		return nil, errors.Wrapf(signer.ErrStorageRead, "decode %q: %v", StorageKey, err)
	}
	if len(serialized) == 0 {
		return nil, errors.Wrapf(signer.ErrStorageRead, "%q holds no keys", StorageKey)
	}

	restored := make([]keys.Keypair, 0, len(serialized))
	for i, sk := range serialized {
		priv, err := keys.DeserializePrivKey(sk)
		if err != nil {
			return nil, errors.Wrapf(signer.ErrStorageRead, "entry %d: %v", i, err)
		}
		kp, err := keys.NewKeypair(priv)
		if err != nil {
			return nil, errors.Wrapf(signer.ErrStorageRead, "entry %d: %v", i, err)
		}
		restored = append(restored, kp)
	}
	return restored, nil
}

// persist writes the whole list in a single Set.
func (s *Store) persist(list []keys.Keypair) error {
	serialized := make([]string, len(list))
	for i, kp := range list {
		serialized[i] = kp.PrivKey().Serialize()
	}
	raw, err := json.Marshal(serialized)
	if err != nil {
		return errors.Wrap(err, "encode key list")
	}
	if err := s.blobs.Set(StorageKey, raw); err != nil {
		return errors.Wrap(err, "persist key list")
	}
	return nil
}

// CreateKeypair appends a freshly generated keypair, persists the full list
// and selects the new entry. If persisting fails the store is left unchanged.
func (s *Store) CreateKeypair() (int, keys.Keypair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kp, err := keys.GenKeypair(s.rand)
	if err != nil {
		return -1, keys.Keypair{}, err
	}

	next := make([]keys.Keypair, len(s.keypairs), len(s.keypairs)+1)
	copy(next, s.keypairs)
	next = append(next, kp)

	if err := s.persist(next); err != nil {
		return -1, keys.Keypair{}, err
	}

	s.keypairs = next
	s.selected = len(next) - 1
	s.loaded = true
	s.log.Info().Int("index", s.selected).Str("pubkey", kp.PubKey().Serialize()).Msg("created keypair")
	return s.selected, kp, nil
}

// Select changes the active keypair for this session only.
func (s *Store) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.keypairs) {
		return errors.Wrapf(signer.ErrKeypairOutOfRange, "index %d, have %d", index, len(s.keypairs))
	}
	s.selected = index
	return nil
}

// Selected returns the active index, or -1 before LoadOrInit.
func (s *Store) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Active returns the selected keypair.
func (s *Store) Active() (keys.Keypair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded || s.selected < 0 || s.selected >= len(s.keypairs) {
		return keys.Keypair{}, signer.ErrNoKeypair
	}
	return s.keypairs[s.selected], nil
}

// Keypairs returns a copy of the list in creation order.
func (s *Store) Keypairs() []keys.Keypair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]keys.Keypair, len(s.keypairs))
	copy(out, s.keypairs)
	return out
}

// Len returns the number of keypairs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keypairs)
}
