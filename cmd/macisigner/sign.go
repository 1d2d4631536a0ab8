package main

import (
	"github.com/smallyu/go-maci-signer/internal/crypto/eddsa"
	"github.com/smallyu/go-maci-signer/internal/protocol/wire"
)

type SignCommand struct {
	g *Globals

	Args struct {
		Hash string `positional-arg-name:"hash" required:"yes" description:"message hash, decimal or 0x-prefixed hex"`
	} `positional-args:"yes"`
}

func (c *SignCommand) Execute(args []string) error {
	m, err := eddsa.ParseMessage(c.Args.Hash)
	if err != nil {
		return err
	}

	p, err := c.g.params()
	if err != nil {
		return err
	}
	ks, err := c.g.openKeys(p, c.g.logger())
	if err != nil {
		return err
	}
	kp, err := ks.Active()
	if err != nil {
		return err
	}

	sig, err := kp.Sign(m)
	if err != nil {
		return err
	}
	encoded, err := wire.EncodeSignature(sig)
	if err != nil {
		return err
	}
	c.g.printf("%s\n", encoded)
	return nil
}
