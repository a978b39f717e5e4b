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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// AccessControl tracks the administrator and the addresses permitted to
// create proposals. It is not safe for concurrent use; Engine serializes
// access to it.
type AccessControl struct {
	admin    common.Address
	creators mapset.Set[common.Address]
}

// NewAccessControl creates an access control list with admin as the
// administrator and first allowed creator
func NewAccessControl(admin common.Address) *AccessControl {
	return &AccessControl{
		admin:    admin,
		creators: mapset.NewThreadUnsafeSet(admin),
	}
}

// Administrator returns the current administrator
func (ac *AccessControl) Administrator() common.Address {
	return ac.admin
}

// IsAdministrator checks if caller is the administrator
func (ac *AccessControl) IsAdministrator(caller common.Address) bool {
	return caller == ac.admin
}

// IsAllowedCreator checks if addr may create proposals
func (ac *AccessControl) IsAllowedCreator(addr common.Address) bool {
	return ac.creators.Contains(addr)
}

// SetAllowedCreator sets the allowed-creator membership of target
func (ac *AccessControl) SetAllowedCreator(caller, target common.Address, status bool) (*CreatorStatusChangedEvent, error) {
	if !ac.IsAdministrator(caller) {
		return nil, ErrUnauthorized
	}
	if status {
		ac.creators.Add(target)
	} else {
		ac.creators.Remove(target)
	}
	return &CreatorStatusChangedEvent{User: target, IsAllowed: status}, nil
}

// TransferAdministrator hands the administrator capability to next. The
// allowed-creator set is left untouched.
func (ac *AccessControl) TransferAdministrator(caller, next common.Address) (*AdministratorChangedEvent, error) {
	if !ac.IsAdministrator(caller) {
		return nil, ErrUnauthorized
	}
	if next == (common.Address{}) {
		return nil, ErrInvalidAdministrator
	}
	prev := ac.admin
	ac.admin = next
	return &AdministratorChangedEvent{Previous: prev, Current: next}, nil
}

// AllowedCreators returns all allowed creators
func (ac *AccessControl) AllowedCreators() []common.Address {
	return ac.creators.ToSlice()
}
