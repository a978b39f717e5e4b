// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// govledger runs the token-weighted governance ledger and talks to it.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "TOML configuration file",
		EnvVars: []string{"GOVLEDGER_CONFIG"},
	}
	envFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "dotenv file applied before GOVLEDGER_* overrides",
	}
	rpcFlag = &cli.StringFlag{
		Name:    "rpc",
		Usage:   "govledger JSON-RPC endpoint (http or ws)",
		Value:   "http://127.0.0.1:8645",
		EnvVars: []string{"GOVLEDGER_RPC"},
	}
	keyFlag = &cli.StringFlag{
		Name:    "key",
		Usage:   "hex-encoded secp256k1 private key used to sign requests",
		EnvVars: []string{"GOVLEDGER_KEY"},
	}
	keyFileFlag = &cli.PathFlag{
		Name:  "keyfile",
		Usage: "file holding the hex-encoded private key",
	}
	idFlag = &cli.Uint64Flag{
		Name:     "id",
		Usage:    "proposal id",
		Required: true,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "govledger",
		Usage: "token-weighted governance ledger",
		Commands: []*cli.Command{
			serveCommand,
			dumpConfigCommand,
			proposeCommand,
			voteCommand,
			likeCommand,
			allowCommand,
			transferAdminCommand,
			proposalCommand,
			watchCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
