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

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SecondsPerDay is the length of a rate-limit day.
const SecondsPerDay = 86400

// DefaultThresholdUnits is the proposal creation threshold in whole tokens.
const DefaultThresholdUnits = 1000

// Proposal represents a governance proposal
type Proposal struct {
	ID          uint64         // sequential, starts at 1
	Creator     common.Address // proposer
	Title       string
	Description string
	EndTime     uint64      // voting is closed once now >= EndTime
	YesVotes    uint256.Int // total weight in favour
	NoVotes     uint256.Int // total weight against
	LikeCount   uint64
	Open        bool // advisory; time is authoritative
}

// IsOpen reports whether the proposal accepts votes and likes at time now.
func (p *Proposal) IsOpen(now uint64) bool {
	return p.Open && now < p.EndTime
}

// UserVoteInfo is the immutable record of a voter's choice on a proposal.
type UserVoteInfo struct {
	HasVoted bool
	Support  bool
	Weight   uint256.Int // balance at the moment of voting
}

// Config holds the parameters fixed at engine construction.
type Config struct {
	Administrator     common.Address // initial administrator and allowed creator
	VotingToken       common.Address // token whose balances weigh votes
	CreationThreshold *uint256.Int   // minimum balance to create a proposal
}

// ProposalCreatedEvent is posted when a proposal is created.
type ProposalCreatedEvent struct {
	ID      uint64
	Creator common.Address
	Title   string
	EndTime uint64
}

// VotedEvent is posted when a vote is recorded.
type VotedEvent struct {
	ProposalID uint64
	Voter      common.Address
	Support    bool
	Weight     uint256.Int
}

// LikedEvent is posted when a proposal is liked.
type LikedEvent struct {
	ProposalID uint64
	User       common.Address
}

// CreatorStatusChangedEvent is posted when allowed-creator membership changes.
type CreatorStatusChangedEvent struct {
	User      common.Address
	IsAllowed bool
}

// AdministratorChangedEvent is posted when the administrator is replaced.
type AdministratorChangedEvent struct {
	Previous common.Address
	Current  common.Address
}
