package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(args []string) error {
	g := newGlobals()
	_, err := newParser(g).ParseArgs(args)
	if err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}

func newParser(g *Globals) *flags.Parser {
	parser := flags.NewNamedParser("macisigner", flags.Default)
	parser.EnvNamespace = "MACI_SIGNER"

	g.parser = parser
	parser.AddGroup("Global Options", "", g)

	keysCmd, err := parser.AddCommand("keys", "manage keypairs", "List, create and inspect the stored MACI keypairs", &KeysCommand{})
	if err != nil {
		panic(err)
	}
	keysCmd.AddCommand("list", "list keypairs", "Print every stored public key in creation order", &KeysList{g: g})
	keysCmd.AddCommand("create", "create a keypair", "Generate a new keypair and append it to the store", &KeysCreate{g: g})
	keysCmd.AddCommand("show", "show a keypair", "Print the active public key and its circuit inputs", &KeysShow{g: g})

	parser.AddCommand("sign", "sign a message", "Sign a message hash with the active keypair and print the signature", &SignCommand{g: g})
	parser.AddCommand("pair", "pair with a voting session", "Connect to the relay, pair with a peer and answer its signature requests", &PairCommand{g: g})

	return parser
}
