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
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// Client is a typed client for the gov namespace
type Client struct {
	c *rpc.Client
}

// Dial connects a client to the given URL
func Dial(rawurl string) (*Client, error) {
	return DialContext(context.Background(), rawurl)
}

// DialContext connects a client to the given URL with context
func DialContext(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// NewClient creates a client that uses the given RPC client
func NewClient(c *rpc.Client) *Client {
	return &Client{c}
}

// Close closes the underlying RPC connection
func (gc *Client) Close() {
	gc.c.Close()
}

// ProposalCount returns the number of proposals
func (gc *Client) ProposalCount(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	err := gc.c.CallContext(ctx, &result, "gov_proposalCount")
	return uint64(result), err
}

// Proposal returns a proposal by id
func (gc *Client) Proposal(ctx context.Context, id uint64) (*RPCProposal, error) {
	var result *RPCProposal
	if err := gc.c.CallContext(ctx, &result, "gov_getProposal", hexutil.Uint64(id)); err != nil {
		return nil, err
	}
	return result, nil
}

// Proposals returns a page of proposals
func (gc *Client) Proposals(ctx context.Context, offset, limit uint64) ([]*RPCProposal, error) {
	var result []*RPCProposal
	err := gc.c.CallContext(ctx, &result, "gov_getProposals", hexutil.Uint64(offset), hexutil.Uint64(limit))
	return result, err
}

// IsAllowedCreator reports whether addr may create proposals
func (gc *Client) IsAllowedCreator(ctx context.Context, addr common.Address) (bool, error) {
	var result bool
	err := gc.c.CallContext(ctx, &result, "gov_isAllowedCreator", addr)
	return result, err
}

// UserVote returns the vote record of voter on a proposal
func (gc *Client) UserVote(ctx context.Context, id uint64, voter common.Address) (*RPCUserVote, error) {
	var result *RPCUserVote
	if err := gc.c.CallContext(ctx, &result, "gov_getUserVote", hexutil.Uint64(id), voter); err != nil {
		return nil, err
	}
	return result, nil
}

// LastProposalDay returns the day of addr's latest proposal
func (gc *Client) LastProposalDay(ctx context.Context, addr common.Address) (uint64, bool, error) {
	var result RPCLastProposalDay
	if err := gc.c.CallContext(ctx, &result, "gov_lastProposalDay", addr); err != nil {
		return 0, false, err
	}
	return uint64(result.Day), result.Found, nil
}

// VotingToken returns the voting token address
func (gc *Client) VotingToken(ctx context.Context) (common.Address, error) {
	var result common.Address
	err := gc.c.CallContext(ctx, &result, "gov_votingToken")
	return result, err
}

// CreationThreshold returns the proposal creation threshold in base units
func (gc *Client) CreationThreshold(ctx context.Context) (*uint256.Int, error) {
	var result hexutil.U256
	if err := gc.c.CallContext(ctx, &result, "gov_creationThreshold"); err != nil {
		return nil, err
	}
	return (*uint256.Int)(&result), nil
}

// Administrator returns the current administrator
func (gc *Client) Administrator(ctx context.Context) (common.Address, error) {
	var result common.Address
	err := gc.c.CallContext(ctx, &result, "gov_administrator")
	return result, err
}

// Nonce returns the next nonce addr should sign with
func (gc *Client) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	var result hexutil.Uint64
	err := gc.c.CallContext(ctx, &result, "gov_nonce", addr)
	return uint64(result), err
}

// signWithNonce fetches the signer's next nonce and signs args
func (gc *Client) signWithNonce(ctx context.Context, key *ecdsa.PrivateKey, args SignedArgs) error {
	nonce, err := gc.Nonce(ctx, crypto.PubkeyToAddress(key.PublicKey))
	if err != nil {
		return err
	}
	args.authorization().Nonce = hexutil.Uint64(nonce)
	return Sign(key, args)
}

// CreateProposal signs and submits a proposal and returns its id
func (gc *Client) CreateProposal(ctx context.Context, key *ecdsa.PrivateKey, title, description string, duration uint64) (uint64, error) {
	args := &CreateProposalArgs{Title: title, Description: description, Duration: hexutil.Uint64(duration)}
	if err := gc.signWithNonce(ctx, key, args); err != nil {
		return 0, err
	}
	var id hexutil.Uint64
	err := gc.c.CallContext(ctx, &id, "gov_createProposal", args)
	return uint64(id), err
}

// Vote signs and submits a vote
func (gc *Client) Vote(ctx context.Context, key *ecdsa.PrivateKey, id uint64, support bool) error {
	args := &VoteArgs{ProposalID: hexutil.Uint64(id), Support: support}
	if err := gc.signWithNonce(ctx, key, args); err != nil {
		return err
	}
	return gc.c.CallContext(ctx, nil, "gov_vote", args)
}

// Like signs and submits a like
func (gc *Client) Like(ctx context.Context, key *ecdsa.PrivateKey, id uint64) error {
	args := &LikeArgs{ProposalID: hexutil.Uint64(id)}
	if err := gc.signWithNonce(ctx, key, args); err != nil {
		return err
	}
	return gc.c.CallContext(ctx, nil, "gov_like", args)
}

// SetAllowedCreator signs and submits an allowed-creator change
func (gc *Client) SetAllowedCreator(ctx context.Context, key *ecdsa.PrivateKey, user common.Address, allowed bool) error {
	args := &SetAllowedCreatorArgs{User: user, Allowed: allowed}
	if err := gc.signWithNonce(ctx, key, args); err != nil {
		return err
	}
	return gc.c.CallContext(ctx, nil, "gov_setAllowedCreator", args)
}

// TransferAdministrator signs and submits an administrator transfer
func (gc *Client) TransferAdministrator(ctx context.Context, key *ecdsa.PrivateKey, next common.Address) error {
	args := &TransferAdministratorArgs{NewAdministrator: next}
	if err := gc.signWithNonce(ctx, key, args); err != nil {
		return err
	}
	return gc.c.CallContext(ctx, nil, "gov_transferAdministrator", args)
}

// SubscribeEvents streams engine notifications into ch
func (gc *Client) SubscribeEvents(ctx context.Context, ch chan<- *RPCEvent) (*rpc.ClientSubscription, error) {
	return gc.c.Subscribe(ctx, Namespace, ch, "events")
}
