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
	"errors"

	"github.com/govledger/govledger/governance"
)

// JSON-RPC error codes returned by the gov namespace
const (
	CodeUnauthorized         = -38001
	CodeInvalidAdministrator = -38002
	CodeNotAllowedCreator    = -38003
	CodeInsufficientBalance  = -38010
	CodeRateLimitExceeded    = -38011
	CodeInvalidDuration      = -38012
	CodeProposalNotFound     = -38020
	CodeProposalClosed       = -38021
	CodeNoTokensToVote       = -38022
	CodeAlreadyVoted         = -38023
	CodeBalanceQuery         = -38030
	CodeInvalidSignature     = -38040
	CodeNonceTooLow          = -38041
)

var errorCodes = []struct {
	err  error
	code int
}{
	{governance.ErrUnauthorized, CodeUnauthorized},
	{governance.ErrInvalidAdministrator, CodeInvalidAdministrator},
	{governance.ErrNotAllowedCreator, CodeNotAllowedCreator},
	{governance.ErrInsufficientBalance, CodeInsufficientBalance},
	{governance.ErrRateLimitExceeded, CodeRateLimitExceeded},
	{governance.ErrInvalidDuration, CodeInvalidDuration},
	{governance.ErrProposalNotFound, CodeProposalNotFound},
	{governance.ErrProposalClosed, CodeProposalClosed},
	{governance.ErrNoTokensToVote, CodeNoTokensToVote},
	{governance.ErrAlreadyVoted, CodeAlreadyVoted},
	{governance.ErrBalanceQuery, CodeBalanceQuery},
	{errInvalidSignature, CodeInvalidSignature},
	{errSignerMismatch, CodeInvalidSignature},
	{errNonceTooLow, CodeNonceTooLow},
}

// apiError attaches a JSON-RPC error code to an engine error
type apiError struct {
	err  error
	code int
}

func (e *apiError) Error() string  { return e.err.Error() }
func (e *apiError) ErrorCode() int { return e.code }
func (e *apiError) Unwrap() error  { return e.err }

// toRPCError maps known errors to their stable codes. Unknown errors are
// returned unchanged and reported with the server's default code.
func toRPCError(err error) error {
	if err == nil {
		return nil
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return &apiError{err: err, code: entry.code}
		}
	}
	return err
}
