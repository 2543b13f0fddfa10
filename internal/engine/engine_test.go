package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfrage76/dusk-manager/internal/recorder"
	"github.com/wolfrage76/dusk-manager/internal/state"
	"github.com/wolfrage76/dusk-manager/internal/wallet"
)

type fakeWallet struct {
	height    uint64
	heightErr error
	info      wallet.StakeInfo
	infoErr   error

	withdrawErr error
	unstakeErr  error
	stakeErr    error

	calls        []string
	stakedAmount decimal.Decimal
}

func (w *fakeWallet) BlockHeight(context.Context) (uint64, error) {
	w.calls = append(w.calls, "block-height")
	return w.height, w.heightErr
}

func (w *fakeWallet) StakeInfo(context.Context) (wallet.StakeInfo, error) {
	w.calls = append(w.calls, "stake-info")
	return w.info, w.infoErr
}

func (w *fakeWallet) Withdraw(context.Context) error {
	w.calls = append(w.calls, "withdraw")
	return w.withdrawErr
}

func (w *fakeWallet) Unstake(context.Context) error {
	w.calls = append(w.calls, "unstake")
	return w.unstakeErr
}

func (w *fakeWallet) Stake(_ context.Context, amount decimal.Decimal) error {
	w.calls = append(w.calls, "stake")
	w.stakedAmount = amount
	return w.stakeErr
}

// actionCalls returns only the mutating wallet invocations.
func (w *fakeWallet) actionCalls() []string {
	var out []string
	for _, c := range w.calls {
		if c == "withdraw" || c == "unstake" || c == "stake" {
			out = append(out, c)
		}
	}
	return out
}

type fakeSleeper struct {
	durations []time.Duration
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return nil
}

type captureNotifier struct {
	messages []string
}

func (c *captureNotifier) Notify(_ context.Context, message string, _ state.Snapshot) error {
	c.messages = append(c.messages, message)
	return nil
}

type captureRecorder struct {
	records []*recorder.ActionRecord
}

func (c *captureRecorder) RecordAction(rec *recorder.ActionRecord) error {
	c.records = append(c.records, rec)
	return nil
}

func (c *captureRecorder) Close() error { return nil }

func newTestEngine(w *fakeWallet) (*Engine, *fakeSleeper, *captureNotifier, *captureRecorder, *state.Store) {
	sleeper := &fakeSleeper{}
	notifier := &captureNotifier{}
	rec := &captureRecorder{}
	store := state.NewStore()
	e := New(testSettings(), w, store, sleeper, notifier, rec, nil)
	return e, sleeper, notifier, rec, store
}

func TestCycle_RestakeSkipped_IssuesNoWalletActions(t *testing.T) {
	w := &fakeWallet{
		height: 1000 + 2160,
		info: wallet.StakeInfo{
			StakeAmount:             dec("100"),
			ReclaimableSlashedStake: dec("5"),
			RewardsAmount:           dec("3"),
		},
	}
	e, _, _, rec, store := newTestEngine(w)
	store.SetLastClaimBlock(1000)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}

	if actions := w.actionCalls(); len(actions) != 0 {
		t.Fatalf("expected zero wallet actions, got %v", actions)
	}
	if len(rec.records) != 1 || rec.records[0].Action != "RESTAKE_SKIPPED" {
		t.Fatalf("records = %+v, want one RESTAKE_SKIPPED", rec.records)
	}
}

func TestCycle_UnstakeRestake_FullSequenceAndCooldown(t *testing.T) {
	w := &fakeWallet{
		height: 1000 + 2160,
		info: wallet.StakeInfo{
			StakeAmount:             dec("2000"),
			ReclaimableSlashedStake: dec("5"),
			RewardsAmount:           dec("3"),
		},
	}
	e, sleeper, _, rec, store := newTestEngine(w)
	store.SetLastClaimBlock(1000)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}

	want := []string{"withdraw", "unstake", "stake"}
	got := w.actionCalls()
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("actions = %v, want %v", got, want)
		}
	}
	if !w.stakedAmount.Equal(dec("2008")) {
		t.Fatalf("staked %s, want total restake 2008", w.stakedAmount)
	}

	// The post-action sleep is computed one epoch ahead, skipping the
	// next boundary: 2160 - (3160+2160)%2160 - 60 = 1100 blocks at 10s.
	if len(sleeper.durations) != 1 {
		t.Fatalf("sleeps = %v, want exactly one cooldown sleep", sleeper.durations)
	}
	wantSleep := 11000 * time.Second
	if sleeper.durations[0] != wantSleep {
		t.Fatalf("cooldown sleep = %v, want %v", sleeper.durations[0], wantSleep)
	}

	if store.LastClaimBlock() != 3160 {
		t.Fatalf("last claim block = %d, want 3160", store.LastClaimBlock())
	}
	if len(rec.records) != 1 || rec.records[0].Action != "UNSTAKE_RESTAKE" {
		t.Fatalf("records = %+v, want one UNSTAKE_RESTAKE", rec.records)
	}
}

func TestCycle_ClaimStake_WithdrawThenStake(t *testing.T) {
	w := &fakeWallet{
		height: 1000 + 4320,
		info: wallet.StakeInfo{
			StakeAmount:             dec("2000"),
			ReclaimableSlashedStake: dec("0"),
			RewardsAmount:           dec("5"),
		},
	}
	e, _, _, rec, store := newTestEngine(w)
	store.SetLastClaimBlock(1000)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}

	got := w.actionCalls()
	if len(got) != 2 || got[0] != "withdraw" || got[1] != "stake" {
		t.Fatalf("actions = %v, want [withdraw stake]", got)
	}
	if !w.stakedAmount.Equal(dec("5")) {
		t.Fatalf("staked %s, want rewards 5", w.stakedAmount)
	}
	if store.LastClaimBlock() != 5320 {
		t.Fatalf("last claim block = %d, want 5320", store.LastClaimBlock())
	}
	if len(rec.records) != 1 || rec.records[0].Action != "CLAIM_STAKE" {
		t.Fatalf("records = %+v, want one CLAIM_STAKE", rec.records)
	}
}

func TestCycle_StepFailureAbandonsRemainingSteps(t *testing.T) {
	w := &fakeWallet{
		height: 1000 + 2160,
		info: wallet.StakeInfo{
			StakeAmount:             dec("2000"),
			ReclaimableSlashedStake: dec("5"),
			RewardsAmount:           dec("3"),
		},
		unstakeErr: errors.New("transaction rejected"),
	}
	e, _, notifier, rec, store := newTestEngine(w)
	store.SetLastClaimBlock(1000)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}

	// withdraw ran, unstake failed, stake never attempted.
	got := w.actionCalls()
	if len(got) != 2 || got[0] != "withdraw" || got[1] != "unstake" {
		t.Fatalf("actions = %v, want [withdraw unstake]", got)
	}

	// The failure names the step and the operator gets notified.
	failed := false
	for _, r := range rec.records {
		if r.Action == "ACTION_FAILED" {
			failed = true
		}
	}
	if !failed {
		t.Fatalf("records = %+v, want an ACTION_FAILED entry", rec.records)
	}
	found := false
	for _, m := range notifier.messages {
		if strings.Contains(m, "unstake failed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("notifications = %v, want one naming the failed step", notifier.messages)
	}

	// Last claim block untouched: the cycle did not complete.
	if store.LastClaimBlock() != 1000 {
		t.Fatalf("last claim block = %d, want 1000", store.LastClaimBlock())
	}
}

func TestCycle_NoActionGuardSkipsStakeInfo(t *testing.T) {
	w := &fakeWallet{height: 5000}
	e, sleeper, _, _, store := newTestEngine(w)
	store.SetLastNoActionBlock(5000)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}

	for _, c := range w.calls {
		if c == "stake-info" {
			t.Fatalf("stake-info fetched while height unchanged: %v", w.calls)
		}
	}
	if len(sleeper.durations) != 1 || sleeper.durations[0] != 60*time.Second {
		t.Fatalf("sleeps = %v, want one 60s guard sleep", sleeper.durations)
	}
}

func TestCycle_UnparseableStakeInfoRetriesWithoutActing(t *testing.T) {
	w := &fakeWallet{
		height:  5000,
		infoErr: wallet.ErrUnparseable,
	}
	e, sleeper, _, rec, _ := newTestEngine(w)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}

	if actions := w.actionCalls(); len(actions) != 0 {
		t.Fatalf("expected zero wallet actions, got %v", actions)
	}
	if len(rec.records) != 0 {
		t.Fatalf("records = %+v, want none", rec.records)
	}
	if len(sleeper.durations) != 1 || sleeper.durations[0] != 30*time.Second {
		t.Fatalf("sleeps = %v, want one 30s retry sleep", sleeper.durations)
	}
}

func TestCycle_HeightFetchFailureRetries(t *testing.T) {
	w := &fakeWallet{heightErr: errors.New("connection refused")}
	e, sleeper, _, _, _ := newTestEngine(w)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}
	if len(sleeper.durations) != 1 || sleeper.durations[0] != 30*time.Second {
		t.Fatalf("sleeps = %v, want one 30s retry sleep", sleeper.durations)
	}
}

func TestCycle_FirstRunSendsStartupSummaryOnce(t *testing.T) {
	w := &fakeWallet{
		height: 5000,
		info: wallet.StakeInfo{
			StakeAmount:             dec("2000"),
			ReclaimableSlashedStake: dec("0"),
			RewardsAmount:           dec("0.5"),
		},
	}
	e, _, notifier, _, store := newTestEngine(w)

	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("cycle returned %v", err)
	}

	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "Startup @ Block #5000") {
		t.Fatalf("notifications = %v, want one startup summary", notifier.messages)
	}

	// A later no-action cycle at a new height goes to the journal, not
	// the notifier.
	w.height = 5001
	if err := e.cycle(context.Background()); err != nil {
		t.Fatalf("second cycle returned %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("notifications = %v, want still one", notifier.messages)
	}
	snap := store.Snapshot()
	if len(snap.Journal) != 1 || !strings.Contains(snap.Journal[0].Text, "Block #5001") {
		t.Fatalf("journal = %+v, want one no-action entry", snap.Journal)
	}
}
