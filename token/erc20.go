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

// Package token provides balance oracles for the governance engine.
package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Minimal ERC-20 ABI covering the read-only calls the oracle needs
const erc20ABI = `[
	{
		"name": "balanceOf",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "account", "type": "address"}],
		"outputs": [{"type": "uint256"}]
	},
	{
		"name": "decimals",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"type": "uint8"}]
	}
]`

var errBalanceOverflow = errors.New("balance exceeds 256 bits")

// ERC20Oracle reads balances from an ERC-20 token contract. Every call goes
// to the backend at the latest block.
type ERC20Oracle struct {
	caller  ethereum.ContractCaller
	address common.Address
	abi     abi.ABI
}

// NewERC20Oracle creates an oracle for the token at address. The caller is
// usually an *ethclient.Client.
func NewERC20Oracle(caller ethereum.ContractCaller, address common.Address) (*ERC20Oracle, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}
	return &ERC20Oracle{
		caller:  caller,
		address: address,
		abi:     parsedABI,
	}, nil
}

// Address returns the token contract address
func (o *ERC20Oracle) Address() common.Address {
	return o.address
}

// BalanceOf returns the token balance of addr
func (o *ERC20Oracle) BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	out, err := o.call(ctx, "balanceOf", addr)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", out[0])
	}
	value, overflow := uint256.FromBig(balance)
	if overflow {
		return nil, errBalanceOverflow
	}
	return value, nil
}

// Decimals returns the number of decimals of the token
func (o *ERC20Oracle) Decimals(ctx context.Context) (uint8, error) {
	out, err := o.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result type %T", out[0])
	}
	return decimals, nil
}

func (o *ERC20Oracle) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := o.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &o.address,
		Data: data,
	}
	result, err := o.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	out, err := o.abi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}
	return out, nil
}
