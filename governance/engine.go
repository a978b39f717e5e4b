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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// Engine is the governance state machine. It owns the access control list,
// the rate limiter, the proposal store and the vote ledger, and runs every
// operation on them as a single critical section. Notifications are sent
// after the critical section is left.
type Engine struct {
	config Config
	oracle BalanceOracle
	clock  Clock

	mu      sync.RWMutex
	access  *AccessControl
	limiter *RateLimiter
	store   *ProposalStore
	ledger  *VoteLedger

	scope               event.SubscriptionScope
	proposalCreatedFeed event.FeedOf[ProposalCreatedEvent]
	votedFeed           event.FeedOf[VotedEvent]
	likedFeed           event.FeedOf[LikedEvent]
	creatorStatusFeed   event.FeedOf[CreatorStatusChangedEvent]
	adminChangedFeed    event.FeedOf[AdministratorChangedEvent]
}

// NewEngine creates a governance engine. A nil clock selects the system
// clock.
func NewEngine(config *Config, oracle BalanceOracle, clock Clock) (*Engine, error) {
	if config == nil || config.CreationThreshold == nil {
		return nil, errors.New("missing creation threshold")
	}
	if config.Administrator == (common.Address{}) {
		return nil, ErrInvalidAdministrator
	}
	if oracle == nil {
		return nil, errors.New("missing balance oracle")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	cfg := *config
	cfg.CreationThreshold = new(uint256.Int).Set(config.CreationThreshold)

	return &Engine{
		config:  cfg,
		oracle:  oracle,
		clock:   clock,
		access:  NewAccessControl(cfg.Administrator),
		limiter: NewRateLimiter(),
		store:   NewProposalStore(),
		ledger:  NewVoteLedger(),
	}, nil
}

// CreateProposal creates a proposal open for duration seconds and returns
// its id
func (e *Engine) CreateProposal(ctx context.Context, caller common.Address, title, description string, duration uint64) (uint64, error) {
	e.mu.Lock()
	ev, err := e.createProposal(ctx, caller, title, description, duration)
	count := e.store.Count()
	e.mu.Unlock()

	if err != nil {
		proposalRejectedCounter.Inc(1)
		log.Debug("Proposal rejected", "creator", caller, "err", err)
		return 0, err
	}
	proposalCreatedCounter.Inc(1)
	proposalCountGauge.Update(int64(count))
	log.Info("Proposal created", "id", ev.ID, "creator", caller, "endTime", ev.EndTime)

	e.proposalCreatedFeed.Send(*ev)
	return ev.ID, nil
}

func (e *Engine) createProposal(ctx context.Context, caller common.Address, title, description string, duration uint64) (*ProposalCreatedEvent, error) {
	now := e.clock.Now()

	// Validate everything before touching any state
	balance, err := e.balanceOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	if balance.Lt(e.config.CreationThreshold) {
		return nil, ErrInsufficientBalance
	}
	if !e.access.IsAllowedCreator(caller) {
		return nil, ErrNotAllowedCreator
	}
	if err := e.limiter.Check(caller, now); err != nil {
		return nil, err
	}
	if err := ValidateDuration(duration, now); err != nil {
		return nil, err
	}

	e.limiter.Record(caller, now)
	id, err := e.store.Create(caller, title, description, duration, now)
	if err != nil {
		return nil, err
	}
	return &ProposalCreatedEvent{
		ID:      id,
		Creator: caller,
		Title:   title,
		EndTime: now + duration,
	}, nil
}

// Vote records the vote of caller weighted by its current balance
func (e *Engine) Vote(ctx context.Context, caller common.Address, proposalID uint64, support bool) error {
	e.mu.Lock()
	ev, err := e.vote(ctx, caller, proposalID, support)
	e.mu.Unlock()

	if err != nil {
		voteRejectedCounter.Inc(1)
		log.Debug("Vote rejected", "proposal", proposalID, "voter", caller, "err", err)
		return err
	}
	voteCastCounter.Inc(1)
	log.Info("Vote recorded", "proposal", proposalID, "voter", caller, "support", support, "weight", ev.Weight.Dec())

	e.votedFeed.Send(*ev)
	return nil
}

func (e *Engine) vote(ctx context.Context, caller common.Address, proposalID uint64, support bool) (*VotedEvent, error) {
	now := e.clock.Now()

	proposal, err := e.store.Get(proposalID)
	if err != nil {
		return nil, err
	}
	if !proposal.IsOpen(now) {
		return nil, ErrProposalClosed
	}
	// A repeat vote fails regardless of the current balance
	if e.ledger.HasVoted(proposalID, caller) {
		return nil, ErrAlreadyVoted
	}
	weight, err := e.balanceOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	if weight.IsZero() {
		return nil, ErrNoTokensToVote
	}

	// Both writes are validated above, neither can fail from here
	if err := e.store.RecordVote(proposalID, support, weight, now); err != nil {
		return nil, err
	}
	if err := e.ledger.RecordFirstVote(proposalID, caller, support, weight); err != nil {
		return nil, err
	}
	ev := &VotedEvent{
		ProposalID: proposalID,
		Voter:      caller,
		Support:    support,
	}
	ev.Weight.Set(weight)
	return ev, nil
}

// Like increments the like count of an open proposal. Repeated likes from
// the same address are counted.
func (e *Engine) Like(caller common.Address, proposalID uint64) error {
	e.mu.Lock()
	err := e.store.RecordLike(proposalID, e.clock.Now())
	e.mu.Unlock()

	if err != nil {
		log.Debug("Like rejected", "proposal", proposalID, "user", caller, "err", err)
		return err
	}
	likeCounter.Inc(1)
	e.likedFeed.Send(LikedEvent{ProposalID: proposalID, User: caller})
	return nil
}

// SetAllowedCreator grants or revokes proposal creation rights. Only the
// administrator may call it.
func (e *Engine) SetAllowedCreator(caller, target common.Address, status bool) error {
	e.mu.Lock()
	ev, err := e.access.SetAllowedCreator(caller, target, status)
	e.mu.Unlock()

	if err != nil {
		return err
	}
	creatorChangeCounter.Inc(1)
	log.Info("Creator status changed", "user", target, "allowed", status)

	e.creatorStatusFeed.Send(*ev)
	return nil
}

// TransferAdministrator hands the administrator capability to next
func (e *Engine) TransferAdministrator(caller, next common.Address) error {
	e.mu.Lock()
	ev, err := e.access.TransferAdministrator(caller, next)
	e.mu.Unlock()

	if err != nil {
		return err
	}
	log.Warn("Administrator changed", "previous", ev.Previous, "current", ev.Current)

	e.adminChangedFeed.Send(*ev)
	return nil
}

func (e *Engine) balanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	balance, err := e.oracle.BalanceOf(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBalanceQuery, err)
	}
	if balance == nil {
		return new(uint256.Int), nil
	}
	return balance, nil
}

// ProposalCount returns the number of proposals created so far
func (e *Engine) ProposalCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Count()
}

// Proposal returns a copy of a proposal
func (e *Engine) Proposal(id uint64) (*Proposal, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Get(id)
}

// Proposals returns copies of up to limit proposals starting after offset.
// A zero limit returns everything after offset.
func (e *Engine) Proposals(offset, limit uint64) []*Proposal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.List(offset, limit)
}

// IsOpen evaluates the open/closed state of a proposal at the current time
func (e *Engine) IsOpen(id uint64) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	proposal, err := e.store.Get(id)
	if err != nil {
		return false, err
	}
	return proposal.IsOpen(e.clock.Now()), nil
}

// UserVote returns the vote record of voter on a proposal
func (e *Engine) UserVote(proposalID uint64, voter common.Address) UserVoteInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Get(proposalID, voter)
}

// IsAllowedCreator checks if addr may create proposals
func (e *Engine) IsAllowedCreator(addr common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.access.IsAllowedCreator(addr)
}

// AllowedCreators returns all addresses allowed to create proposals
func (e *Engine) AllowedCreators() []common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.access.AllowedCreators()
}

// Administrator returns the current administrator
func (e *Engine) Administrator() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.access.Administrator()
}

// LastProposalDay returns the last day addr created a proposal
func (e *Engine) LastProposalDay(addr common.Address) (uint64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limiter.LastProposalDay(addr)
}

// VotingToken returns the address of the token weighing votes
func (e *Engine) VotingToken() common.Address {
	return e.config.VotingToken
}

// CreationThreshold returns the minimum balance needed to create a proposal
func (e *Engine) CreationThreshold() *uint256.Int {
	return new(uint256.Int).Set(e.config.CreationThreshold)
}

// Now returns the engine's current time
func (e *Engine) Now() uint64 {
	return e.clock.Now()
}

// SubscribeProposalCreated registers a subscription of ProposalCreatedEvent
func (e *Engine) SubscribeProposalCreated(ch chan<- ProposalCreatedEvent) event.Subscription {
	return e.scope.Track(e.proposalCreatedFeed.Subscribe(ch))
}

// SubscribeVoted registers a subscription of VotedEvent
func (e *Engine) SubscribeVoted(ch chan<- VotedEvent) event.Subscription {
	return e.scope.Track(e.votedFeed.Subscribe(ch))
}

// SubscribeLiked registers a subscription of LikedEvent
func (e *Engine) SubscribeLiked(ch chan<- LikedEvent) event.Subscription {
	return e.scope.Track(e.likedFeed.Subscribe(ch))
}

// SubscribeCreatorStatusChanged registers a subscription of
// CreatorStatusChangedEvent
func (e *Engine) SubscribeCreatorStatusChanged(ch chan<- CreatorStatusChangedEvent) event.Subscription {
	return e.scope.Track(e.creatorStatusFeed.Subscribe(ch))
}

// SubscribeAdministratorChanged registers a subscription of
// AdministratorChangedEvent
func (e *Engine) SubscribeAdministratorChanged(ch chan<- AdministratorChangedEvent) event.Subscription {
	return e.scope.Track(e.adminChangedFeed.Subscribe(ch))
}

// Close terminates all event subscriptions
func (e *Engine) Close() {
	e.scope.Close()
}
