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

package token

import (
	"errors"

	"github.com/holiman/uint256"
)

// MaxDecimals is the largest decimal count whose scale factor fits in 256
// bits (10^77 < 2^256 < 10^78).
const MaxDecimals = 77

var errThresholdOverflow = errors.New("threshold exceeds 256 bits")

// Threshold scales a whole-token amount by the token's decimal factor,
// returning units * 10^decimals.
func Threshold(units uint64, decimals uint8) (*uint256.Int, error) {
	if decimals > MaxDecimals {
		return nil, errThresholdOverflow
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	value, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(units), scale)
	if overflow {
		return nil, errThresholdOverflow
	}
	return value, nil
}
