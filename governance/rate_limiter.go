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

package governance

import "github.com/ethereum/go-ethereum/common"

// DayNumber returns the number of whole days since the unix epoch.
func DayNumber(timestamp uint64) uint64 {
	return timestamp / SecondsPerDay
}

// RateLimiter allows each address at most one proposal per calendar day.
// Days with no record are represented by absence from the map, so day 0 is
// still limited correctly.
type RateLimiter struct {
	lastDay map[common.Address]uint64
}

// NewRateLimiter creates an empty rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		lastDay: make(map[common.Address]uint64),
	}
}

// Check fails if addr already created a proposal on the day of now
func (rl *RateLimiter) Check(addr common.Address, now uint64) error {
	if day, exists := rl.lastDay[addr]; exists && day == DayNumber(now) {
		return ErrRateLimitExceeded
	}
	return nil
}

// Record marks the day of now as used by addr
func (rl *RateLimiter) Record(addr common.Address, now uint64) {
	rl.lastDay[addr] = DayNumber(now)
}

// CheckAndRecord checks the limit and records the day only if it passes
func (rl *RateLimiter) CheckAndRecord(addr common.Address, now uint64) error {
	if err := rl.Check(addr, now); err != nil {
		return err
	}
	rl.Record(addr, now)
	return nil
}

// LastProposalDay returns the last day addr created a proposal
func (rl *RateLimiter) LastProposalDay(addr common.Address) (uint64, bool) {
	day, exists := rl.lastDay[addr]
	return day, exists
}
