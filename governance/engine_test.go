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
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockBalanceOracle is a mock balance oracle for testing
type MockBalanceOracle struct {
	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
	calls    int
	err      error
}

func NewMockBalanceOracle() *MockBalanceOracle {
	return &MockBalanceOracle{
		balances: make(map[common.Address]*uint256.Int),
	}
}

func (m *MockBalanceOracle) SetBalance(addr common.Address, balance *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] = new(uint256.Int).Set(balance)
}

func (m *MockBalanceOracle) BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	balance, exists := m.balances[addr]
	if !exists {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(balance), nil
}

// MockClock is a settable clock for testing
type MockClock struct {
	mu  sync.Mutex
	now uint64
}

func (c *MockClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *MockClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

var (
	testAdmin   = common.HexToAddress("0xad")
	testToken   = common.HexToAddress("0x70")
	testCreator = common.HexToAddress("0xa1")
	testVoter   = common.HexToAddress("0xb1")
)

// testThreshold is 1000 tokens with 18 decimals
func testThreshold() *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(1000), uint256.NewInt(1e18))
}

func newTestEngine(t *testing.T) (*Engine, *MockBalanceOracle, *MockClock) {
	t.Helper()

	oracle := NewMockBalanceOracle()
	clock := &MockClock{now: 1000}
	engine, err := NewEngine(&Config{
		Administrator:     testAdmin,
		VotingToken:       testToken,
		CreationThreshold: testThreshold(),
	}, oracle, clock)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, oracle, clock
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	oracle := NewMockBalanceOracle()

	if _, err := NewEngine(nil, oracle, nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewEngine(&Config{Administrator: testAdmin}, oracle, nil); err == nil {
		t.Error("expected error for missing threshold")
	}
	_, err := NewEngine(&Config{CreationThreshold: testThreshold()}, oracle, nil)
	if err != ErrInvalidAdministrator {
		t.Errorf("expected error %v, got %v", ErrInvalidAdministrator, err)
	}
	if _, err := NewEngine(&Config{Administrator: testAdmin, CreationThreshold: testThreshold()}, nil, nil); err == nil {
		t.Error("expected error for missing oracle")
	}
}

func TestEngine_InitialState(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if engine.Administrator() != testAdmin {
		t.Errorf("expected administrator %v, got %v", testAdmin, engine.Administrator())
	}
	if !engine.IsAllowedCreator(testAdmin) {
		t.Error("administrator should be an allowed creator")
	}
	if engine.IsAllowedCreator(testCreator) {
		t.Error("unknown address should not be an allowed creator")
	}
	if engine.ProposalCount() != 0 {
		t.Errorf("expected 0 proposals, got %d", engine.ProposalCount())
	}
	if engine.VotingToken() != testToken {
		t.Errorf("expected token %v, got %v", testToken, engine.VotingToken())
	}
	if !engine.CreationThreshold().Eq(testThreshold()) {
		t.Errorf("expected threshold %v, got %v", testThreshold().Dec(), engine.CreationThreshold().Dec())
	}
	// The returned threshold must be a copy
	engine.CreationThreshold().SetUint64(1)
	if !engine.CreationThreshold().Eq(testThreshold()) {
		t.Error("threshold was modified through returned value")
	}
}

// Administrator deploys with threshold T; A with balance T creates "P1"
// lasting 3600 seconds at time 1000; B with balance 50 votes.
func TestEngine_ProposalLifecycle(t *testing.T) {
	engine, oracle, clock := newTestEngine(t)
	ctx := context.Background()

	oracle.SetBalance(testCreator, testThreshold())
	oracle.SetBalance(testVoter, uint256.NewInt(50))
	if err := engine.SetAllowedCreator(testAdmin, testCreator, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.Set(1000)
	id, err := engine.CreateProposal(ctx, testCreator, "P1", "first proposal", 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 {
		t.Errorf("expected proposal id 1, got %d", id)
	}
	proposal, err := engine.Proposal(id)
	if err != nil {
		t.Fatalf("failed to get proposal: %v", err)
	}
	if proposal.EndTime != 4600 {
		t.Errorf("expected end time 4600, got %d", proposal.EndTime)
	}
	if !proposal.Open || proposal.Creator != testCreator || proposal.Title != "P1" {
		t.Errorf("unexpected proposal: %+v", proposal)
	}

	clock.Set(2000)
	if err := engine.Vote(ctx, testVoter, id, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proposal, _ = engine.Proposal(id)
	if proposal.YesVotes.Uint64() != 50 {
		t.Errorf("expected 50 yes votes, got %s", proposal.YesVotes.Dec())
	}
	if !proposal.NoVotes.IsZero() {
		t.Errorf("expected 0 no votes, got %s", proposal.NoVotes.Dec())
	}

	clock.Set(2100)
	if err := engine.Vote(ctx, testVoter, id, false); err != ErrAlreadyVoted {
		t.Errorf("expected error %v, got %v", ErrAlreadyVoted, err)
	}
	proposal, _ = engine.Proposal(id)
	if proposal.YesVotes.Uint64() != 50 || !proposal.NoVotes.IsZero() {
		t.Error("tallies changed after rejected vote")
	}

	clock.Set(4700)
	if err := engine.Vote(ctx, testCreator, id, true); err != ErrProposalClosed {
		t.Errorf("expected error %v, got %v", ErrProposalClosed, err)
	}
	open, err := engine.IsOpen(id)
	if err != nil || open {
		t.Errorf("expected closed proposal, got open=%v err=%v", open, err)
	}
}

// A non-allowed creator with enough balance is rejected until the
// administrator allows it.
func TestEngine_AllowedCreatorGate(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()

	oracle.SetBalance(testCreator, testThreshold())

	_, err := engine.CreateProposal(ctx, testCreator, "P", "D", 3600)
	if err != ErrNotAllowedCreator {
		t.Errorf("expected error %v, got %v", ErrNotAllowedCreator, err)
	}
	if engine.ProposalCount() != 0 {
		t.Error("failed creation should not allocate an id")
	}
	if _, exists := engine.LastProposalDay(testCreator); exists {
		t.Error("failed creation should not record a rate-limit day")
	}

	if err := engine.SetAllowedCreator(testAdmin, testCreator, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := engine.CreateProposal(ctx, testCreator, "P", "D", 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 {
		t.Errorf("expected proposal id 1, got %d", id)
	}
}

func TestEngine_CreateProposalValidation(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()

	below := new(uint256.Int).Sub(testThreshold(), uint256.NewInt(1))
	oracle.SetBalance(testAdmin, below)

	_, err := engine.CreateProposal(ctx, testAdmin, "P", "D", 3600)
	if err != ErrInsufficientBalance {
		t.Errorf("expected error %v, got %v", ErrInsufficientBalance, err)
	}

	oracle.SetBalance(testAdmin, testThreshold())
	_, err = engine.CreateProposal(ctx, testAdmin, "P", "D", 0)
	if err != ErrInvalidDuration {
		t.Errorf("expected error %v, got %v", ErrInvalidDuration, err)
	}
	_, err = engine.CreateProposal(ctx, testAdmin, "P", "D", ^uint64(0))
	if err != ErrInvalidDuration {
		t.Errorf("expected error %v for overflowing duration, got %v", ErrInvalidDuration, err)
	}

	// None of the failures may consume an id or the day
	if engine.ProposalCount() != 0 {
		t.Errorf("expected 0 proposals, got %d", engine.ProposalCount())
	}
	if _, exists := engine.LastProposalDay(testAdmin); exists {
		t.Error("failed creation should not record a rate-limit day")
	}
	if _, err := engine.CreateProposal(ctx, testAdmin, "P", "D", 3600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEngine_CreateProposalRateLimit(t *testing.T) {
	engine, oracle, clock := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())

	// Same calendar day
	clock.Set(SecondsPerDay*10 + 5)
	if _, err := engine.CreateProposal(ctx, testAdmin, "P1", "D", 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Set(SecondsPerDay*11 - 1)
	if _, err := engine.CreateProposal(ctx, testAdmin, "P2", "D", 60); err != ErrRateLimitExceeded {
		t.Errorf("expected error %v, got %v", ErrRateLimitExceeded, err)
	}
	day, exists := engine.LastProposalDay(testAdmin)
	if !exists || day != 10 {
		t.Errorf("expected last proposal day 10, got %d (exists=%v)", day, exists)
	}

	// Across the day boundary
	clock.Set(SecondsPerDay * 11)
	id, err := engine.CreateProposal(ctx, testAdmin, "P2", "D", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 2 {
		t.Errorf("expected proposal id 2, got %d", id)
	}
	day, _ = engine.LastProposalDay(testAdmin)
	if day != 11 {
		t.Errorf("expected last proposal day 11, got %d", day)
	}
}

func TestEngine_SequentialIDs(t *testing.T) {
	engine, oracle, clock := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())

	for i := uint64(1); i <= 5; i++ {
		clock.Set(i * SecondsPerDay)
		// A failing attempt before each success must not advance the counter
		if _, err := engine.CreateProposal(ctx, testAdmin, "bad", "D", 0); err != ErrInvalidDuration {
			t.Fatalf("expected error %v, got %v", ErrInvalidDuration, err)
		}
		id, err := engine.CreateProposal(ctx, testAdmin, "P", "D", 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != i {
			t.Errorf("expected proposal id %d, got %d", i, id)
		}
	}
	if engine.ProposalCount() != 5 {
		t.Errorf("expected 5 proposals, got %d", engine.ProposalCount())
	}
	if _, err := engine.Proposal(0); err != ErrProposalNotFound {
		t.Errorf("expected error %v, got %v", ErrProposalNotFound, err)
	}
	if _, err := engine.Proposal(6); err != ErrProposalNotFound {
		t.Errorf("expected error %v, got %v", ErrProposalNotFound, err)
	}
	list := engine.Proposals(1, 2)
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 3 {
		t.Errorf("unexpected proposal page: %+v", list)
	}
}

func TestEngine_VoteWeightLockedAtVoteTime(t *testing.T) {
	engine, oracle, clock := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())

	first, _ := engine.CreateProposal(ctx, testAdmin, "P1", "D", 3600)
	clock.Set(1000 + SecondsPerDay)
	second, _ := engine.CreateProposal(ctx, testAdmin, "P2", "D", 3600)

	oracle.SetBalance(testVoter, uint256.NewInt(70))
	if err := engine.Vote(ctx, testVoter, second, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Later balance changes do not alter recorded weights or tallies
	oracle.SetBalance(testVoter, uint256.NewInt(5))
	info := engine.UserVote(second, testVoter)
	if !info.HasVoted || info.Support || info.Weight.Uint64() != 70 {
		t.Errorf("unexpected vote record: %+v", info)
	}
	p2, _ := engine.Proposal(second)
	if p2.NoVotes.Uint64() != 70 || !p2.YesVotes.IsZero() {
		t.Errorf("unexpected tallies yes=%s no=%s", p2.YesVotes.Dec(), p2.NoVotes.Dec())
	}

	// No other proposal is affected
	p1, _ := engine.Proposal(first)
	if !p1.YesVotes.IsZero() || !p1.NoVotes.IsZero() {
		t.Error("unrelated proposal tallies changed")
	}
	if engine.UserVote(first, testVoter).HasVoted {
		t.Error("vote recorded on the wrong proposal")
	}
}

func TestEngine_VoteRejections(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())
	id, _ := engine.CreateProposal(ctx, testAdmin, "P", "D", 3600)

	if err := engine.Vote(ctx, testVoter, 42, true); err != ErrProposalNotFound {
		t.Errorf("expected error %v, got %v", ErrProposalNotFound, err)
	}
	if err := engine.Vote(ctx, testVoter, id, true); err != ErrNoTokensToVote {
		t.Errorf("expected error %v, got %v", ErrNoTokensToVote, err)
	}
	if engine.UserVote(id, testVoter).HasVoted {
		t.Error("rejected vote should not be recorded")
	}

	oracle.err = errors.New("node unreachable")
	err := engine.Vote(ctx, testVoter, id, true)
	if !errors.Is(err, ErrBalanceQuery) {
		t.Errorf("expected error %v, got %v", ErrBalanceQuery, err)
	}
	p, _ := engine.Proposal(id)
	if !p.YesVotes.IsZero() || !p.NoVotes.IsZero() {
		t.Error("tallies changed after rejected votes")
	}
}

func TestEngine_ClosedByTimeRegardlessOfFlag(t *testing.T) {
	engine, oracle, clock := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())
	oracle.SetBalance(testVoter, uint256.NewInt(1))

	id, _ := engine.CreateProposal(ctx, testAdmin, "P", "D", 100)

	// endTime == now is already closed
	clock.Set(1100)
	p, _ := engine.Proposal(id)
	if !p.Open {
		t.Fatal("stored flag should still be set")
	}
	if err := engine.Vote(ctx, testVoter, id, true); err != ErrProposalClosed {
		t.Errorf("expected error %v, got %v", ErrProposalClosed, err)
	}
	if err := engine.Like(testVoter, id); err != ErrProposalClosed {
		t.Errorf("expected error %v, got %v", ErrProposalClosed, err)
	}
}

func TestEngine_Like(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())
	id, _ := engine.CreateProposal(ctx, testAdmin, "P", "D", 3600)

	if err := engine.Like(testVoter, 7); err != ErrProposalNotFound {
		t.Errorf("expected error %v, got %v", ErrProposalNotFound, err)
	}
	// Repeated likes are counted
	for i := 0; i < 3; i++ {
		if err := engine.Like(testVoter, id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	p, _ := engine.Proposal(id)
	if p.LikeCount != 3 {
		t.Errorf("expected 3 likes, got %d", p.LikeCount)
	}
}

func TestEngine_SetAllowedCreatorUnauthorized(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	err := engine.SetAllowedCreator(testCreator, testCreator, true)
	if err != ErrUnauthorized {
		t.Errorf("expected error %v, got %v", ErrUnauthorized, err)
	}
	if engine.IsAllowedCreator(testCreator) {
		t.Error("unauthorized call changed the allowed-creator set")
	}

	// Revoking the administrator's own creator rights is allowed
	if err := engine.SetAllowedCreator(testAdmin, testAdmin, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.IsAllowedCreator(testAdmin) {
		t.Error("administrator should no longer be an allowed creator")
	}
}

func TestEngine_TransferAdministrator(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	next := common.HexToAddress("0xae")

	if err := engine.TransferAdministrator(testCreator, next); err != ErrUnauthorized {
		t.Errorf("expected error %v, got %v", ErrUnauthorized, err)
	}
	if err := engine.TransferAdministrator(testAdmin, common.Address{}); err != ErrInvalidAdministrator {
		t.Errorf("expected error %v, got %v", ErrInvalidAdministrator, err)
	}
	if err := engine.TransferAdministrator(testAdmin, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.Administrator() != next {
		t.Errorf("expected administrator %v, got %v", next, engine.Administrator())
	}
	if err := engine.SetAllowedCreator(testAdmin, testCreator, true); err != ErrUnauthorized {
		t.Errorf("expected error %v, got %v", ErrUnauthorized, err)
	}
	if err := engine.SetAllowedCreator(next, testCreator, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Creator rights are not transferred
	if !engine.IsAllowedCreator(testAdmin) || engine.IsAllowedCreator(next) {
		t.Error("allowed-creator set changed by administrator transfer")
	}
}

func TestEngine_Events(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())
	oracle.SetBalance(testVoter, uint256.NewInt(9))

	createdCh := make(chan ProposalCreatedEvent, 1)
	votedCh := make(chan VotedEvent, 1)
	likedCh := make(chan LikedEvent, 1)
	statusCh := make(chan CreatorStatusChangedEvent, 1)
	adminCh := make(chan AdministratorChangedEvent, 1)
	subs := []interface{ Unsubscribe() }{
		engine.SubscribeProposalCreated(createdCh),
		engine.SubscribeVoted(votedCh),
		engine.SubscribeLiked(likedCh),
		engine.SubscribeCreatorStatusChanged(statusCh),
		engine.SubscribeAdministratorChanged(adminCh),
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	id, err := engine.CreateProposal(ctx, testAdmin, "Title", "D", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created := <-createdCh
	if created.ID != id || created.Creator != testAdmin || created.Title != "Title" || created.EndTime != 1060 {
		t.Errorf("unexpected event: %+v", created)
	}

	if err := engine.Vote(ctx, testVoter, id, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	voted := <-votedCh
	if voted.ProposalID != id || voted.Voter != testVoter || !voted.Support || voted.Weight.Uint64() != 9 {
		t.Errorf("unexpected event: %+v", voted)
	}

	engine.Like(testVoter, id)
	if liked := <-likedCh; liked.ProposalID != id || liked.User != testVoter {
		t.Errorf("unexpected event: %+v", liked)
	}

	engine.SetAllowedCreator(testAdmin, testCreator, true)
	if status := <-statusCh; status.User != testCreator || !status.IsAllowed {
		t.Errorf("unexpected event: %+v", status)
	}

	engine.TransferAdministrator(testAdmin, testCreator)
	if changed := <-adminCh; changed.Previous != testAdmin || changed.Current != testCreator {
		t.Errorf("unexpected event: %+v", changed)
	}

	// Failed operations emit nothing
	engine.Vote(ctx, testVoter, id, true)
	select {
	case ev := <-votedCh:
		t.Errorf("unexpected event after rejected vote: %+v", ev)
	default:
	}
}

func TestEngine_ConcurrentVotesSameVoter(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())
	oracle.SetBalance(testVoter, uint256.NewInt(11))
	id, _ := engine.CreateProposal(ctx, testAdmin, "P", "D", 3600)

	const attempts = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(support bool) {
			defer wg.Done()
			err := engine.Vote(ctx, testVoter, id, support)
			if err != nil && err != ErrAlreadyVoted {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful vote, got %d", successes)
	}
	p, _ := engine.Proposal(id)
	total := new(uint256.Int).Add(&p.YesVotes, &p.NoVotes)
	if total.Uint64() != 11 {
		t.Errorf("expected total weight 11, got %s", total.Dec())
	}
	info := engine.UserVote(id, testVoter)
	if info.Support && p.YesVotes.Uint64() != 11 || !info.Support && p.NoVotes.Uint64() != 11 {
		t.Error("ledger and tally disagree")
	}
}

func TestEngine_ConcurrentCreateSameAddress(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CreateProposal(ctx, testAdmin, "P", "D", 60)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes int
	for err := range errs {
		switch err {
		case nil:
			successes++
		case ErrRateLimitExceeded:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 successful creation, got %d", successes)
	}
	if engine.ProposalCount() != 1 {
		t.Errorf("expected 1 proposal, got %d", engine.ProposalCount())
	}
}

func TestEngine_BalanceQueriedEveryTime(t *testing.T) {
	engine, oracle, clock := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())

	if _, err := engine.CreateProposal(ctx, testAdmin, "P", "D", 60); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	clock.Set(1000 + SecondsPerDay)
	if _, err := engine.CreateProposal(ctx, testAdmin, "P", "D", 60); err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	oracle.mu.Lock()
	calls := oracle.calls
	oracle.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected 2 balance queries, got %d", calls)
	}
}

func TestEngine_RepeatVoteAlwaysAlreadyVoted(t *testing.T) {
	engine, oracle, _ := newTestEngine(t)
	ctx := context.Background()
	oracle.SetBalance(testAdmin, testThreshold())
	oracle.SetBalance(testVoter, uint256.NewInt(50))

	id, err := engine.CreateProposal(ctx, testAdmin, "P", "D", 3600)
	if err != nil {
		t.Fatalf("failed to create proposal: %v", err)
	}
	if err := engine.Vote(ctx, testVoter, id, true); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}

	// Balance dropped to zero since the first vote
	oracle.SetBalance(testVoter, new(uint256.Int))
	if err := engine.Vote(ctx, testVoter, id, false); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted with zero balance, got %v", err)
	}

	// Oracle unavailable: the outcome is decided without querying it
	oracle.mu.Lock()
	oracle.err = errors.New("node unreachable")
	before := oracle.calls
	oracle.mu.Unlock()
	if err := engine.Vote(ctx, testVoter, id, false); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted with failing oracle, got %v", err)
	}
	oracle.mu.Lock()
	after := oracle.calls
	oracle.mu.Unlock()
	if after != before {
		t.Errorf("expected no balance query for a repeat vote, got %d", after-before)
	}

	info := engine.UserVote(id, testVoter)
	if !info.Support || info.Weight.Uint64() != 50 {
		t.Errorf("expected original vote (yes, 50) to stand, got support=%v weight=%s", info.Support, info.Weight.Dec())
	}
}
