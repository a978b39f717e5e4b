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

type voteKey struct {
	proposalID uint64
	voter      common.Address
}

// VoteLedger records at most one vote per voter per proposal. Entries are
// never overwritten or removed. It is not safe for concurrent use.
type VoteLedger struct {
	votes map[voteKey]*UserVoteInfo
}

// NewVoteLedger creates an empty vote ledger
func NewVoteLedger() *VoteLedger {
	return &VoteLedger{
		votes: make(map[voteKey]*UserVoteInfo),
	}
}

// HasVoted checks if voter has voted on a proposal
func (vl *VoteLedger) HasVoted(proposalID uint64, voter common.Address) bool {
	info, exists := vl.votes[voteKey{proposalID, voter}]
	return exists && info.HasVoted
}

// RecordFirstVote stores the vote of voter, failing if one already exists
func (vl *VoteLedger) RecordFirstVote(proposalID uint64, voter common.Address, support bool, weight *uint256.Int) error {
	if vl.HasVoted(proposalID, voter) {
		return ErrAlreadyVoted
	}
	info := &UserVoteInfo{
		HasVoted: true,
		Support:  support,
	}
	info.Weight.Set(weight)
	vl.votes[voteKey{proposalID, voter}] = info
	return nil
}

// Get returns a copy of the vote record of voter. The zero value is
// returned for voters who have not voted.
func (vl *VoteLedger) Get(proposalID uint64, voter common.Address) UserVoteInfo {
	info, exists := vl.votes[voteKey{proposalID, voter}]
	if !exists {
		return UserVoteInfo{}
	}
	return *info
}
