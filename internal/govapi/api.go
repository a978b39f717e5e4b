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

// Package govapi exposes the governance engine over JSON-RPC in the gov
// namespace.
package govapi

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/govledger/govledger/governance"
)

// Namespace is the JSON-RPC namespace of the API
const Namespace = "gov"

// maxPageSize bounds a single getProposals response
const maxPageSize = 100

// API serves the gov namespace
type API struct {
	engine *governance.Engine
	nonces *nonceTracker
}

// NewAPI creates the gov API backed by engine
func NewAPI(engine *governance.Engine) *API {
	return &API{
		engine: engine,
		nonces: newNonceTracker(),
	}
}

// APIs returns the RPC descriptors for registration on an rpc.Server
func APIs(engine *governance.Engine) []rpc.API {
	return []rpc.API{{
		Namespace: Namespace,
		Service:   NewAPI(engine),
	}}
}

// ProposalCount returns the number of proposals ever created
func (api *API) ProposalCount() hexutil.Uint64 {
	return hexutil.Uint64(api.engine.ProposalCount())
}

// GetProposal returns a proposal by id
func (api *API) GetProposal(id hexutil.Uint64) (*RPCProposal, error) {
	p, err := api.engine.Proposal(uint64(id))
	if err != nil {
		return nil, toRPCError(err)
	}
	return newRPCProposal(p, api.engine.Now()), nil
}

// GetProposals returns up to limit proposals after skipping offset
func (api *API) GetProposals(offset, limit hexutil.Uint64) []*RPCProposal {
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	now := api.engine.Now()
	proposals := api.engine.Proposals(uint64(offset), uint64(limit))
	result := make([]*RPCProposal, 0, len(proposals))
	for _, p := range proposals {
		result = append(result, newRPCProposal(p, now))
	}
	return result
}

// IsAllowedCreator reports whether addr may create proposals
func (api *API) IsAllowedCreator(addr common.Address) bool {
	return api.engine.IsAllowedCreator(addr)
}

// GetUserVote returns the vote record of voter on a proposal
func (api *API) GetUserVote(id hexutil.Uint64, voter common.Address) *RPCUserVote {
	info := api.engine.UserVote(uint64(id), voter)
	return &RPCUserVote{
		HasVoted: info.HasVoted,
		Support:  info.Support,
		Weight:   toU256(&info.Weight),
	}
}

// LastProposalDay returns the day number of addr's latest proposal
func (api *API) LastProposalDay(addr common.Address) *RPCLastProposalDay {
	day, ok := api.engine.LastProposalDay(addr)
	return &RPCLastProposalDay{Found: ok, Day: hexutil.Uint64(day)}
}

// VotingToken returns the token whose balances weigh votes
func (api *API) VotingToken() common.Address {
	return api.engine.VotingToken()
}

// CreationThreshold returns the minimum balance needed to propose
func (api *API) CreationThreshold() *hexutil.U256 {
	return (*hexutil.U256)(api.engine.CreationThreshold())
}

// Administrator returns the current administrator
func (api *API) Administrator() common.Address {
	return api.engine.Administrator()
}

// Nonce returns the lowest nonce addr may sign its next request with
func (api *API) Nonce(addr common.Address) hexutil.Uint64 {
	return hexutil.Uint64(api.nonces.next(addr))
}

// CreateProposal creates a proposal on behalf of the signer
func (api *API) CreateProposal(ctx context.Context, args CreateProposalArgs) (hexutil.Uint64, error) {
	from, err := authenticate(api.nonces, &args)
	if err != nil {
		return 0, toRPCError(err)
	}
	id, err := api.engine.CreateProposal(ctx, from, args.Title, args.Description, uint64(args.Duration))
	if err != nil {
		log.Debug("Rejected proposal request", "from", from, "err", err)
		return 0, toRPCError(err)
	}
	return hexutil.Uint64(id), nil
}

// Vote casts the signer's vote
func (api *API) Vote(ctx context.Context, args VoteArgs) error {
	from, err := authenticate(api.nonces, &args)
	if err != nil {
		return toRPCError(err)
	}
	return toRPCError(api.engine.Vote(ctx, from, uint64(args.ProposalID), args.Support))
}

// Like records a like from the signer
func (api *API) Like(args LikeArgs) error {
	from, err := authenticate(api.nonces, &args)
	if err != nil {
		return toRPCError(err)
	}
	return toRPCError(api.engine.Like(from, uint64(args.ProposalID)))
}

// SetAllowedCreator changes allowed-creator membership. The signer must be
// the administrator.
func (api *API) SetAllowedCreator(args SetAllowedCreatorArgs) error {
	from, err := authenticate(api.nonces, &args)
	if err != nil {
		return toRPCError(err)
	}
	return toRPCError(api.engine.SetAllowedCreator(from, args.User, args.Allowed))
}

// TransferAdministrator hands the administrator role to a new account
func (api *API) TransferAdministrator(args TransferAdministratorArgs) error {
	from, err := authenticate(api.nonces, &args)
	if err != nil {
		return toRPCError(err)
	}
	return toRPCError(api.engine.TransferAdministrator(from, args.NewAdministrator))
}
