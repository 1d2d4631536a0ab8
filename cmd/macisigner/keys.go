package main

import (
	"strings"
)

// KeysCommand groups the key management subcommands.
type KeysCommand struct{}

type KeysList struct {
	g *Globals
}

func (c *KeysList) Execute(args []string) error {
	p, err := c.g.params()
	if err != nil {
		return err
	}
	ks, err := c.g.openKeys(p, c.g.logger())
	if err != nil {
		return err
	}

	selected := ks.Selected()
	for i, kp := range ks.Keypairs() {
		marker := " "
		if i == selected {
			marker = "*"
		}
		c.g.printf("%s %d %s\n", marker, i, kp.PubKey().Serialize())
	}
	return nil
}

type KeysCreate struct {
	g *Globals
}

func (c *KeysCreate) Execute(args []string) error {
	p, err := c.g.params()
	if err != nil {
		return err
	}
	ks, err := c.g.openKeys(p, c.g.logger())
	if err != nil {
		return err
	}

	idx, kp, err := ks.CreateKeypair()
	if err != nil {
		return err
	}
	c.g.printf("%d %s\n", idx, kp.PubKey().Serialize())
	return nil
}

type KeysShow struct {
	g *Globals
}

func (c *KeysShow) Execute(args []string) error {
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
	c.g.printf("index:   %d\n", ks.Selected())
	c.g.printf("pubkey:  %s\n", kp.PubKey().Serialize())
	c.g.printf("circuit: [%s]\n", strings.Join(kp.PubKey().AsCircuitInputs(), ", "))
	return nil
}
