package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/smallyu/go-maci-signer/internal/keystore"
	"github.com/smallyu/go-maci-signer/internal/storage/localfs"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// Globals are the options shared by every command. They can also be set from
// an INI file passed with --config, or from MACI_SIGNER_* variables.
type Globals struct {
	DataDir  string `long:"data-dir" env:"DATA_DIR" description:"directory holding the key list (default: user config dir)"`
	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log verbosity"`
	Key      int    `long:"key" env:"KEY" default:"0" description:"index of the keypair to use for this run"`

	Config func(path string) error `long:"config" no-ini:"true" description:"INI file with option values"`

	parser *flags.Parser
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newGlobals() *Globals {
	g := &Globals{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	g.Config = func(path string) error {
		if err := flags.NewIniParser(g.parser).ParseFile(path); err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
		return nil
	}
	return g
}

func (g *Globals) logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(g.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: g.errOut}).
		Level(level).
		With().Timestamp().Logger()
}

func (g *Globals) dataDir() (string, error) {
	if g.DataDir != "" {
		return g.DataDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate config dir")
	}
	return filepath.Join(dir, "maci-signer"), nil
}

func (g *Globals) params() (signer.Parameters, error) {
	dir, err := g.dataDir()
	if err != nil {
		return signer.Parameters{}, err
	}
	return signer.Parameters{DataDir: dir}, nil
}

// openKeys loads the key list and selects the keypair named by --key.
func (g *Globals) openKeys(p signer.Parameters, log zerolog.Logger) (*keystore.Store, error) {
	blobs, err := localfs.New(p.DataDir)
	if err != nil {
		return nil, err
	}
	ks := keystore.New(blobs, keystore.WithLogger(log))
	if err := ks.LoadOrInit(); err != nil {
		return nil, err
	}
	if err := ks.Select(g.Key); err != nil {
		return nil, err
	}
	return ks, nil
}

func (g *Globals) printf(format string, args ...interface{}) {
	fmt.Fprintf(g.out, format, args...)
}
