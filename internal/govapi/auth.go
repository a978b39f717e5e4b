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
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	errInvalidSignature = errors.New("invalid signature")
	errSignerMismatch   = errors.New("signature does not match sender")
	errNonceTooLow      = errors.New("nonce too low")
)

// Authorization is the envelope carried by every state-changing request.
// Signature is a 65-byte [R || S || V] secp256k1 signature over the
// EIP-191 hash of the request's canonical message.
type Authorization struct {
	From      common.Address `json:"from"`
	Nonce     hexutil.Uint64 `json:"nonce"`
	Signature hexutil.Bytes  `json:"signature"`
}

func (a *Authorization) authorization() *Authorization { return a }

// SignedArgs is implemented by every write request
type SignedArgs interface {
	authorization() *Authorization
	message() []byte
}

// CreateProposalArgs are the arguments of gov_createProposal
type CreateProposalArgs struct {
	Authorization
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Duration    hexutil.Uint64 `json:"duration"`
}

func (a *CreateProposalArgs) message() []byte {
	return canonical("createProposal", &a.Authorization,
		"title", crypto.Keccak256Hash([]byte(a.Title)).Hex(),
		"description", crypto.Keccak256Hash([]byte(a.Description)).Hex(),
		"duration", fmt.Sprint(uint64(a.Duration)))
}

// VoteArgs are the arguments of gov_vote
type VoteArgs struct {
	Authorization
	ProposalID hexutil.Uint64 `json:"proposalId"`
	Support    bool           `json:"support"`
}

func (a *VoteArgs) message() []byte {
	return canonical("vote", &a.Authorization,
		"proposal", fmt.Sprint(uint64(a.ProposalID)),
		"support", fmt.Sprint(a.Support))
}

// LikeArgs are the arguments of gov_like
type LikeArgs struct {
	Authorization
	ProposalID hexutil.Uint64 `json:"proposalId"`
}

func (a *LikeArgs) message() []byte {
	return canonical("like", &a.Authorization, "proposal", fmt.Sprint(uint64(a.ProposalID)))
}

// SetAllowedCreatorArgs are the arguments of gov_setAllowedCreator
type SetAllowedCreatorArgs struct {
	Authorization
	User    common.Address `json:"user"`
	Allowed bool           `json:"allowed"`
}

func (a *SetAllowedCreatorArgs) message() []byte {
	return canonical("setAllowedCreator", &a.Authorization,
		"user", a.User.Hex(),
		"allowed", fmt.Sprint(a.Allowed))
}

// TransferAdministratorArgs are the arguments of gov_transferAdministrator
type TransferAdministratorArgs struct {
	Authorization
	NewAdministrator common.Address `json:"newAdministrator"`
}

func (a *TransferAdministratorArgs) message() []byte {
	return canonical("transferAdministrator", &a.Authorization, "administrator", a.NewAdministrator.Hex())
}

// canonical renders the text that is signed for an operation. The field
// list alternates keys and values.
func canonical(op string, auth *Authorization, fields ...string) []byte {
	msg := fmt.Sprintf("govledger %s\nfrom: %s\nnonce: %d", op, auth.From.Hex(), uint64(auth.Nonce))
	for i := 0; i+1 < len(fields); i += 2 {
		msg += fmt.Sprintf("\n%s: %s", fields[i], fields[i+1])
	}
	return []byte(msg)
}

// Sign fills in the sender and signature of args using key. The nonce must
// be set beforehand.
func Sign(key *ecdsa.PrivateKey, args SignedArgs) error {
	auth := args.authorization()
	auth.From = crypto.PubkeyToAddress(key.PublicKey)
	sig, err := crypto.Sign(accounts.TextHash(args.message()), key)
	if err != nil {
		return err
	}
	sig[crypto.RecoveryIDOffset] += 27
	auth.Signature = sig
	return nil
}

// SignCreateProposal signs a proposal creation request
func SignCreateProposal(key *ecdsa.PrivateKey, args *CreateProposalArgs) error {
	return Sign(key, args)
}

// SignVote signs a vote request
func SignVote(key *ecdsa.PrivateKey, args *VoteArgs) error { return Sign(key, args) }

// SignLike signs a like request
func SignLike(key *ecdsa.PrivateKey, args *LikeArgs) error { return Sign(key, args) }

// SignSetAllowedCreator signs an allowed-creator change
func SignSetAllowedCreator(key *ecdsa.PrivateKey, args *SetAllowedCreatorArgs) error {
	return Sign(key, args)
}

// SignTransferAdministrator signs an administrator transfer
func SignTransferAdministrator(key *ecdsa.PrivateKey, args *TransferAdministratorArgs) error {
	return Sign(key, args)
}

// recoverSigner returns the address that produced sig over msg. Both the
// 27/28 and 0/1 recovery id conventions are accepted.
func recoverSigner(msg []byte, sig hexutil.Bytes) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errInvalidSignature
	}
	sig = common.CopyBytes(sig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", errInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// nonceTracker remembers the highest accepted nonce per sender
type nonceTracker struct {
	mu   sync.Mutex
	last map[common.Address]uint64
}

func newNonceTracker() *nonceTracker {
	return &nonceTracker{last: make(map[common.Address]uint64)}
}

// use accepts nonce if it is above every nonce previously used by addr
func (nt *nonceTracker) use(addr common.Address, nonce uint64) error {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if last, ok := nt.last[addr]; ok && nonce <= last {
		return fmt.Errorf("%w: have %d, want > %d", errNonceTooLow, nonce, last)
	}
	nt.last[addr] = nonce
	return nil
}

// next returns the lowest nonce addr may use
func (nt *nonceTracker) next(addr common.Address) uint64 {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if last, ok := nt.last[addr]; ok {
		return last + 1
	}
	return 0
}

// authenticate verifies the signature of args and consumes its nonce
func authenticate(nonces *nonceTracker, args SignedArgs) (common.Address, error) {
	auth := args.authorization()
	signer, err := recoverSigner(args.message(), auth.Signature)
	if err != nil {
		return common.Address{}, err
	}
	if signer != auth.From {
		return common.Address{}, errSignerMismatch
	}
	if err := nonces.use(auth.From, uint64(auth.Nonce)); err != nil {
		return common.Address{}, err
	}
	return signer, nil
}
