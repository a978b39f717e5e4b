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
	"errors"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/govledger/govledger/governance"
)

var errEngineClosed = errors.New("governance engine is shut down")

// eventBuffer sizes each feed channel of an events subscription
const eventBuffer = 64

// Events streams every engine notification to the subscriber until it
// unsubscribes or the engine shuts down.
func (api *API) Events(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}
	var (
		created = make(chan governance.ProposalCreatedEvent, eventBuffer)
		voted   = make(chan governance.VotedEvent, eventBuffer)
		liked   = make(chan governance.LikedEvent, eventBuffer)
		status  = make(chan governance.CreatorStatusChangedEvent, eventBuffer)
		admin   = make(chan governance.AdministratorChangedEvent, eventBuffer)
	)
	subs := []event.Subscription{
		api.engine.SubscribeProposalCreated(created),
		api.engine.SubscribeVoted(voted),
		api.engine.SubscribeLiked(liked),
		api.engine.SubscribeCreatorStatusChanged(status),
		api.engine.SubscribeAdministratorChanged(admin),
	}
	var scope event.SubscriptionScope
	for i, sub := range subs {
		// A closed engine hands out nil subscriptions
		if sub == nil {
			scope.Close()
			return &rpc.Subscription{}, errEngineClosed
		}
		subs[i] = scope.Track(sub)
	}
	rpcSub := notifier.CreateSubscription()

	// Any feed ending, including engine shutdown, ends the stream
	ended := make(chan struct{}, len(subs))
	for _, sub := range subs {
		go func(sub event.Subscription) {
			<-sub.Err()
			ended <- struct{}{}
		}(sub)
	}

	go func() {
		defer scope.Close()
		for {
			var ev *RPCEvent
			select {
			case e := <-created:
				ev = newProposalCreatedEvent(e)
			case e := <-voted:
				ev = newVotedEvent(e)
			case e := <-liked:
				ev = newLikedEvent(e)
			case e := <-status:
				ev = newCreatorStatusEvent(e)
			case e := <-admin:
				ev = newAdministratorEvent(e)
			case <-rpcSub.Err():
				return
			case <-ended:
				return
			}
			if err := notifier.Notify(rpcSub.ID, ev); err != nil {
				return
			}
		}
	}()
	return rpcSub, nil
}
