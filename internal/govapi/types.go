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

package govapi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/govledger/govledger/governance"
	"github.com/holiman/uint256"
)

// RPCProposal is the JSON form of a proposal. Open reflects the voting
// window at the time of the call.
type RPCProposal struct {
	ID          hexutil.Uint64 `json:"id"`
	Creator     common.Address `json:"creator"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	EndTime     hexutil.Uint64 `json:"endTime"`
	YesVotes    *hexutil.U256  `json:"yesVotes"`
	NoVotes     *hexutil.U256  `json:"noVotes"`
	LikeCount   hexutil.Uint64 `json:"likeCount"`
	Open        bool           `json:"open"`
}

// RPCUserVote is the JSON form of a voter's record on a proposal
type RPCUserVote struct {
	HasVoted bool          `json:"hasVoted"`
	Support  bool          `json:"support"`
	Weight   *hexutil.U256 `json:"weight"`
}

// RPCLastProposalDay reports the day number of an account's latest proposal
type RPCLastProposalDay struct {
	Found bool           `json:"found"`
	Day   hexutil.Uint64 `json:"day"`
}

// Event kinds streamed by the events subscription
const (
	EventProposalCreated      = "proposalCreated"
	EventVoted                = "voted"
	EventLiked                = "liked"
	EventCreatorStatusChanged = "creatorStatusChanged"
	EventAdministratorChanged = "administratorChanged"
)

// RPCEvent is a single engine notification. Only the fields relevant to
// Kind are set.
type RPCEvent struct {
	Kind       string          `json:"kind"`
	ProposalID *hexutil.Uint64 `json:"proposalId,omitempty"`
	Account    *common.Address `json:"account,omitempty"`
	Title      string          `json:"title,omitempty"`
	EndTime    *hexutil.Uint64 `json:"endTime,omitempty"`
	Support    *bool           `json:"support,omitempty"`
	Weight     *hexutil.U256   `json:"weight,omitempty"`
	Allowed    *bool           `json:"allowed,omitempty"`
	Previous   *common.Address `json:"previous,omitempty"`
	Current    *common.Address `json:"current,omitempty"`
}

func toU256(v *uint256.Int) *hexutil.U256 {
	return (*hexutil.U256)(new(uint256.Int).Set(v))
}

func newRPCProposal(p *governance.Proposal, now uint64) *RPCProposal {
	return &RPCProposal{
		ID:          hexutil.Uint64(p.ID),
		Creator:     p.Creator,
		Title:       p.Title,
		Description: p.Description,
		EndTime:     hexutil.Uint64(p.EndTime),
		YesVotes:    toU256(&p.YesVotes),
		NoVotes:     toU256(&p.NoVotes),
		LikeCount:   hexutil.Uint64(p.LikeCount),
		Open:        p.IsOpen(now),
	}
}

func newProposalCreatedEvent(ev governance.ProposalCreatedEvent) *RPCEvent {
	id, end, creator := hexutil.Uint64(ev.ID), hexutil.Uint64(ev.EndTime), ev.Creator
	return &RPCEvent{Kind: EventProposalCreated, ProposalID: &id, Account: &creator, Title: ev.Title, EndTime: &end}
}

func newVotedEvent(ev governance.VotedEvent) *RPCEvent {
	id, voter, support := hexutil.Uint64(ev.ProposalID), ev.Voter, ev.Support
	return &RPCEvent{Kind: EventVoted, ProposalID: &id, Account: &voter, Support: &support, Weight: toU256(&ev.Weight)}
}

func newLikedEvent(ev governance.LikedEvent) *RPCEvent {
	id, user := hexutil.Uint64(ev.ProposalID), ev.User
	return &RPCEvent{Kind: EventLiked, ProposalID: &id, Account: &user}
}

func newCreatorStatusEvent(ev governance.CreatorStatusChangedEvent) *RPCEvent {
	user, allowed := ev.User, ev.IsAllowed
	return &RPCEvent{Kind: EventCreatorStatusChanged, Account: &user, Allowed: &allowed}
}

func newAdministratorEvent(ev governance.AdministratorChangedEvent) *RPCEvent {
	prev, cur := ev.Previous, ev.Current
	return &RPCEvent{Kind: EventAdministratorChanged, Previous: &prev, Current: &cur}
}
