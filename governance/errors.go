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

import "errors"

// Access errors
var (
	ErrUnauthorized         = errors.New("caller is not the administrator")
	ErrInvalidAdministrator = errors.New("invalid administrator address")
	ErrNotAllowedCreator    = errors.New("caller is not an allowed proposal creator")
)

// Proposal creation errors
var (
	ErrInsufficientBalance = errors.New("balance below proposal creation threshold")
	ErrRateLimitExceeded   = errors.New("proposal already created today")
	ErrInvalidDuration     = errors.New("invalid voting duration")
)

// Voting errors
var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrProposalClosed   = errors.New("proposal is closed")
	ErrNoTokensToVote   = errors.New("no tokens to vote")
	ErrAlreadyVoted     = errors.New("voter has already voted on this proposal")
)

// Collaborator errors
var (
	ErrBalanceQuery = errors.New("balance query failed")
)
