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

package token

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StaticOracle keeps balances in memory. It backs development setups where
// no chain is available.
type StaticOracle struct {
	mu       sync.RWMutex
	balances map[common.Address]*uint256.Int
}

// NewStaticOracle creates an oracle seeded with a copy of balances
func NewStaticOracle(balances map[common.Address]*uint256.Int) *StaticOracle {
	o := &StaticOracle{
		balances: make(map[common.Address]*uint256.Int, len(balances)),
	}
	for addr, balance := range balances {
		o.balances[addr] = new(uint256.Int).Set(balance)
	}
	return o
}

// SetBalance replaces the balance of addr
func (o *StaticOracle) SetBalance(addr common.Address, balance *uint256.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.balances[addr] = new(uint256.Int).Set(balance)
}

// BalanceOf returns the balance of addr, zero if unknown
func (o *StaticOracle) BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	balance, exists := o.balances[addr]
	if !exists {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(balance), nil
}
