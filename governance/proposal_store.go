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

// ProposalStore owns all proposals. Proposal i lives at index i-1, so ids
// are dense and never reused. It is not safe for concurrent use.
type ProposalStore struct {
	proposals []*Proposal
}

// NewProposalStore creates an empty proposal store
func NewProposalStore() *ProposalStore {
	return &ProposalStore{
		proposals: make([]*Proposal, 0),
	}
}

// ValidateDuration checks that a voting window of duration seconds starting
// at now is representable.
func ValidateDuration(duration, now uint64) error {
	if duration == 0 || now+duration < now {
		return ErrInvalidDuration
	}
	return nil
}

// Create stores a new open proposal and returns its id
func (ps *ProposalStore) Create(creator common.Address, title, description string, duration, now uint64) (uint64, error) {
	if err := ValidateDuration(duration, now); err != nil {
		return 0, err
	}
	id := uint64(len(ps.proposals)) + 1
	ps.proposals = append(ps.proposals, &Proposal{
		ID:          id,
		Creator:     creator,
		Title:       title,
		Description: description,
		EndTime:     now + duration,
		Open:        true,
	})
	return id, nil
}

// Count returns the number of proposals ever created
func (ps *ProposalStore) Count() uint64 {
	return uint64(len(ps.proposals))
}

// Get returns a copy of a proposal
func (ps *ProposalStore) Get(id uint64) (*Proposal, error) {
	p, err := ps.lookup(id)
	if err != nil {
		return nil, err
	}
	proposalCopy := *p
	return &proposalCopy, nil
}

// List returns copies of up to limit proposals starting after offset
func (ps *ProposalStore) List(offset, limit uint64) []*Proposal {
	count := uint64(len(ps.proposals))
	if offset >= count {
		return []*Proposal{}
	}
	end := count
	if limit > 0 && limit < count-offset {
		end = offset + limit
	}
	list := make([]*Proposal, 0, end-offset)
	for _, p := range ps.proposals[offset:end] {
		proposalCopy := *p
		list = append(list, &proposalCopy)
	}
	return list
}

// RecordVote adds weight to the yes or no tally of an open proposal
func (ps *ProposalStore) RecordVote(id uint64, support bool, weight *uint256.Int, now uint64) error {
	p, err := ps.lookupOpen(id, now)
	if err != nil {
		return err
	}
	if support {
		p.YesVotes.Add(&p.YesVotes, weight)
	} else {
		p.NoVotes.Add(&p.NoVotes, weight)
	}
	return nil
}

// RecordLike increments the like count of an open proposal
func (ps *ProposalStore) RecordLike(id uint64, now uint64) error {
	p, err := ps.lookupOpen(id, now)
	if err != nil {
		return err
	}
	p.LikeCount++
	return nil
}

func (ps *ProposalStore) lookup(id uint64) (*Proposal, error) {
	if id == 0 || id > uint64(len(ps.proposals)) {
		return nil, ErrProposalNotFound
	}
	return ps.proposals[id-1], nil
}

func (ps *ProposalStore) lookupOpen(id uint64, now uint64) (*Proposal, error) {
	p, err := ps.lookup(id)
	if err != nil {
		return nil, err
	}
	if !p.IsOpen(now) {
		return nil, ErrProposalClosed
	}
	return p, nil
}
