package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testSettings() Settings {
	return Settings{
		MinRewards:              dec("1"),
		MinSlashed:              dec("1"),
		MinStakeAmount:          dec("1000"),
		BufferBlocks:            60,
		AutoStakeRewards:        true,
		AutoReclaimFullRestakes: true,
	}
}

func TestRewardsPerEpoch(t *testing.T) {
	// One full epoch elapsed: per-epoch rewards equal total rewards.
	got := RewardsPerEpoch(dec("3"), 1000, 1000+2160)
	if !got.Equal(dec("3")) {
		t.Fatalf("one epoch: got %s, want 3", got)
	}

	// Two epochs elapsed: rewards are halved per epoch.
	got = RewardsPerEpoch(dec("5"), 1000, 1000+4320)
	if !got.Equal(dec("2.5")) {
		t.Fatalf("two epochs: got %s, want 2.5", got)
	}

	// Height at or behind the last claim yields zero, never a division
	// by zero or a negative rate.
	if got := RewardsPerEpoch(dec("5"), 1000, 1000); !got.IsZero() {
		t.Fatalf("height == lastClaim: got %s, want 0", got)
	}
	if got := RewardsPerEpoch(dec("5"), 1000, 500); !got.IsZero() {
		t.Fatalf("height < lastClaim: got %s, want 0", got)
	}
}

func TestDecide_UnstakeRestake(t *testing.T) {
	// Reclaimable 5 > min 1, downtime loss 3 (one epoch elapsed, rewards
	// 3), 5 >= 3, total restake well above the minimum.
	in := Input{
		Height:                  1000 + 2160,
		LastClaimBlock:          1000,
		StakeAmount:             dec("2000"),
		ReclaimableSlashedStake: dec("5"),
		RewardsAmount:           dec("3"),
	}
	d := Decide(in, testSettings())

	if d.Action != ActionUnstakeRestake {
		t.Fatalf("action = %s, want UNSTAKE_RESTAKE", d.Action)
	}
	if !d.DowntimeLoss.Equal(dec("3")) {
		t.Fatalf("downtime loss = %s, want 3", d.DowntimeLoss)
	}
	if !d.TotalRestake.Equal(dec("2008")) {
		t.Fatalf("total restake = %s, want 2008", d.TotalRestake)
	}
}

func TestDecide_RestakeSkippedBelowMinimum(t *testing.T) {
	in := Input{
		Height:                  1000 + 2160,
		LastClaimBlock:          1000,
		StakeAmount:             dec("100"),
		ReclaimableSlashedStake: dec("5"),
		RewardsAmount:           dec("3"),
	}
	d := Decide(in, testSettings())

	if d.Action != ActionRestakeSkipped {
		t.Fatalf("action = %s, want RESTAKE_SKIPPED", d.Action)
	}
	if !d.TotalRestake.Equal(dec("108")) {
		t.Fatalf("total restake = %s, want 108", d.TotalRestake)
	}
}

func TestDecide_ReclaimLossDominates(t *testing.T) {
	// Reclaimable 2 is above the minimum but below the downtime loss 3,
	// so the round trip would cost more than it recovers. Rewards 3 > 1
	// qualify for the claim branch instead.
	in := Input{
		Height:                  1000 + 2160,
		LastClaimBlock:          1000,
		StakeAmount:             dec("2000"),
		ReclaimableSlashedStake: dec("2"),
		RewardsAmount:           dec("3"),
	}
	d := Decide(in, testSettings())

	if d.Action != ActionClaimStake {
		t.Fatalf("action = %s, want CLAIM_STAKE", d.Action)
	}
}

func TestDecide_ClaimStake(t *testing.T) {
	// Two epochs elapsed: rewards 5 > min 1 and 5 >= per-epoch 2.5.
	in := Input{
		Height:                  1000 + 4320,
		LastClaimBlock:          1000,
		StakeAmount:             dec("2000"),
		ReclaimableSlashedStake: dec("0"),
		RewardsAmount:           dec("5"),
	}
	d := Decide(in, testSettings())

	if d.Action != ActionClaimStake {
		t.Fatalf("action = %s, want CLAIM_STAKE", d.Action)
	}
}

func TestDecide_TogglesGateBranches(t *testing.T) {
	in := Input{
		Height:                  1000 + 2160,
		LastClaimBlock:          1000,
		StakeAmount:             dec("2000"),
		ReclaimableSlashedStake: dec("5"),
		RewardsAmount:           dec("3"),
	}

	s := testSettings()
	s.AutoReclaimFullRestakes = false
	// With reclaim off, the same inputs flow to the claim branch.
	if d := Decide(in, s); d.Action != ActionClaimStake {
		t.Fatalf("reclaim off: action = %s, want CLAIM_STAKE", d.Action)
	}

	s.AutoStakeRewards = false
	if d := Decide(in, s); d.Action != ActionNone {
		t.Fatalf("both off: action = %s, want NO_ACTION", d.Action)
	}
}

func TestDecide_NoActionBelowThresholds(t *testing.T) {
	in := Input{
		Height:                  1000 + 2160,
		LastClaimBlock:          1000,
		StakeAmount:             dec("2000"),
		ReclaimableSlashedStake: dec("0.5"),
		RewardsAmount:           dec("0.5"),
	}
	if d := Decide(in, testSettings()); d.Action != ActionNone {
		t.Fatalf("action = %s, want NO_ACTION", d.Action)
	}
}

func TestDecide_PrecedenceReclaimFirst(t *testing.T) {
	// Both branches qualify; unstake/restake wins.
	in := Input{
		Height:                  1000 + 2160,
		LastClaimBlock:          1000,
		StakeAmount:             dec("2000"),
		ReclaimableSlashedStake: dec("50"),
		RewardsAmount:           dec("10"),
	}
	if d := Decide(in, testSettings()); d.Action != ActionUnstakeRestake {
		t.Fatalf("action = %s, want UNSTAKE_RESTAKE", d.Action)
	}
}
