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

package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/govledger/govledger/internal/govapi"
	"github.com/urfave/cli/v2"
)

var (
	titleFlag = &cli.StringFlag{
		Name:     "title",
		Usage:    "proposal title",
		Required: true,
	}
	descriptionFlag = &cli.StringFlag{
		Name:  "description",
		Usage: "proposal description",
	}
	durationFlag = &cli.Uint64Flag{
		Name:  "duration",
		Usage: "voting window in seconds",
		Value: 7 * 86400,
	}
	choiceFlag = &cli.StringFlag{
		Name:     "choice",
		Usage:    "vote choice: yes or no",
		Required: true,
	}
	userFlag = &cli.StringFlag{
		Name:     "user",
		Usage:    "account address",
		Required: true,
	}
	revokeFlag = &cli.BoolFlag{
		Name:  "revoke",
		Usage: "remove the account instead of adding it",
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "new administrator address",
		Required: true,
	}
	offsetFlag = &cli.Uint64Flag{
		Name:  "offset",
		Usage: "number of proposals to skip",
	}
	limitFlag = &cli.Uint64Flag{
		Name:  "limit",
		Usage: "maximum number of proposals to list",
		Value: 20,
	}
)

var signerFlags = []cli.Flag{rpcFlag, keyFlag, keyFileFlag}

var proposeCommand = &cli.Command{
	Name:  "propose",
	Usage: "Create a proposal",
	Flags: append([]cli.Flag{titleFlag, descriptionFlag, durationFlag}, signerFlags...),
	Action: func(ctx *cli.Context) error {
		client, key, err := dialSigner(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		id, err := client.CreateProposal(ctx.Context, key, ctx.String(titleFlag.Name), ctx.String(descriptionFlag.Name), ctx.Uint64(durationFlag.Name))
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "Created proposal %d\n", id)
		return nil
	},
}

var voteCommand = &cli.Command{
	Name:  "vote",
	Usage: "Vote on a proposal with the signer's full balance",
	Flags: append([]cli.Flag{idFlag, choiceFlag}, signerFlags...),
	Action: func(ctx *cli.Context) error {
		support, err := parseChoice(ctx.String(choiceFlag.Name))
		if err != nil {
			return err
		}
		client, key, err := dialSigner(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.Vote(ctx.Context, key, ctx.Uint64(idFlag.Name), support)
	},
}

var likeCommand = &cli.Command{
	Name:  "like",
	Usage: "Like a proposal",
	Flags: append([]cli.Flag{idFlag}, signerFlags...),
	Action: func(ctx *cli.Context) error {
		client, key, err := dialSigner(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.Like(ctx.Context, key, ctx.Uint64(idFlag.Name))
	},
}

var allowCommand = &cli.Command{
	Name:  "allow",
	Usage: "Grant or revoke proposal creation rights (administrator only)",
	Flags: append([]cli.Flag{userFlag, revokeFlag}, signerFlags...),
	Action: func(ctx *cli.Context) error {
		user, err := parseAddress(ctx.String(userFlag.Name))
		if err != nil {
			return err
		}
		client, key, err := dialSigner(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.SetAllowedCreator(ctx.Context, key, user, !ctx.Bool(revokeFlag.Name))
	},
}

var transferAdminCommand = &cli.Command{
	Name:  "transfer-admin",
	Usage: "Hand the administrator role to another account",
	Flags: append([]cli.Flag{toFlag}, signerFlags...),
	Action: func(ctx *cli.Context) error {
		next, err := parseAddress(ctx.String(toFlag.Name))
		if err != nil {
			return err
		}
		client, key, err := dialSigner(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.TransferAdministrator(ctx.Context, key, next)
	},
}

var proposalCommand = &cli.Command{
	Name:  "proposal",
	Usage: "Show one proposal, or list proposals when no id is given",
	Flags: []cli.Flag{rpcFlag, &cli.Uint64Flag{Name: idFlag.Name, Usage: idFlag.Usage}, offsetFlag, limitFlag},
	Action: func(ctx *cli.Context) error {
		client, err := govapi.DialContext(ctx.Context, ctx.String(rpcFlag.Name))
		if err != nil {
			return err
		}
		defer client.Close()

		var result interface{}
		if ctx.IsSet(idFlag.Name) {
			result, err = client.Proposal(ctx.Context, ctx.Uint64(idFlag.Name))
		} else {
			result, err = client.Proposals(ctx.Context, ctx.Uint64(offsetFlag.Name), ctx.Uint64(limitFlag.Name))
		}
		if err != nil {
			return err
		}
		return printJSON(ctx, result)
	},
}

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "Stream governance events (requires a ws endpoint)",
	Flags: []cli.Flag{rpcFlag},
	Action: func(ctx *cli.Context) error {
		client, err := govapi.DialContext(ctx.Context, ctx.String(rpcFlag.Name))
		if err != nil {
			return err
		}
		defer client.Close()

		events := make(chan *govapi.RPCEvent, 16)
		sub, err := client.SubscribeEvents(ctx.Context, events)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
		for {
			select {
			case ev := <-events:
				if err := printJSON(ctx, ev); err != nil {
					return err
				}
			case err := <-sub.Err():
				return err
			case <-ctx.Context.Done():
				return nil
			}
		}
	},
}

func dialSigner(ctx *cli.Context) (*govapi.Client, *ecdsa.PrivateKey, error) {
	key, err := loadKey(ctx)
	if err != nil {
		return nil, nil, err
	}
	client, err := govapi.DialContext(ctx.Context, ctx.String(rpcFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	return client, key, nil
}

func loadKey(ctx *cli.Context) (*ecdsa.PrivateKey, error) {
	switch {
	case ctx.IsSet(keyFileFlag.Name):
		return crypto.LoadECDSA(ctx.Path(keyFileFlag.Name))
	case ctx.String(keyFlag.Name) != "":
		return crypto.HexToECDSA(strings.TrimPrefix(ctx.String(keyFlag.Name), "0x"))
	default:
		return nil, errors.New("a signing key is required (--key or --keyfile)")
	}
}

func parseChoice(choice string) (bool, error) {
	switch strings.ToLower(choice) {
	case "yes", "y", "for":
		return true, nil
	case "no", "n", "against":
		return false, nil
	default:
		return false, fmt.Errorf("invalid vote choice %q, want yes or no", choice)
	}
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func printJSON(ctx *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(out))
	return nil
}
