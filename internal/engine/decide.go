package engine

import (
	"github.com/shopspring/decimal"

	"github.com/wolfrage76/dusk-manager/internal/config"
	"github.com/wolfrage76/dusk-manager/internal/epoch"
)

// Action is the outcome of one decision cycle.
type Action int

const (
	// ActionNone is the default: nothing worth doing at this height.
	ActionNone Action = iota
	// ActionClaimStake withdraws accumulated rewards and stakes them.
	ActionClaimStake
	// ActionUnstakeRestake reclaims slashed stake via a full
	// withdraw/unstake/stake round trip.
	ActionUnstakeRestake
	// ActionRestakeSkipped means a restake was warranted but the total
	// would fall below the minimum stake, so no command is issued.
	ActionRestakeSkipped
)

func (a Action) String() string {
	switch a {
	case ActionClaimStake:
		return "CLAIM_STAKE"
	case ActionUnstakeRestake:
		return "UNSTAKE_RESTAKE"
	case ActionRestakeSkipped:
		return "RESTAKE_SKIPPED"
	default:
		return "NO_ACTION"
	}
}

// Settings are the policy thresholds, converted once from config.
type Settings struct {
	MinRewards     decimal.Decimal
	MinSlashed     decimal.Decimal
	MinStakeAmount decimal.Decimal
	BufferBlocks   int64

	AutoStakeRewards        bool
	AutoReclaimFullRestakes bool
}

func SettingsFromConfig(gc config.GeneralConfig) Settings {
	return Settings{
		MinRewards:              decimal.NewFromFloat(gc.MinRewards),
		MinSlashed:              decimal.NewFromFloat(gc.MinSlashed),
		MinStakeAmount:          decimal.NewFromFloat(gc.MinStakeAmount),
		BufferBlocks:            gc.BufferBlocks,
		AutoStakeRewards:        gc.AutoStakeRewards,
		AutoReclaimFullRestakes: gc.AutoReclaimFullRestakes,
	}
}

// Input is everything a decision needs, recomputed fresh each cycle and
// never cached across cycles.
type Input struct {
	Height         uint64
	LastClaimBlock uint64

	StakeAmount             decimal.Decimal
	ReclaimableSlashedStake decimal.Decimal
	RewardsAmount           decimal.Decimal
}

// Decision is the evaluated outcome plus the derived quantities that
// informed it, for logging and notification.
type Decision struct {
	Action          Action
	RewardsPerEpoch decimal.Decimal
	DowntimeLoss    decimal.Decimal
	TotalRestake    decimal.Decimal
}

// downtimeEpochs is the assumed number of epochs of lost rewards while
// the stake is down during an unstake/restake round trip.
const downtimeEpochs = 1

// RewardsPerEpoch estimates rewards accrued per epoch since the last
// claim. Returns zero when no full or partial epoch has elapsed.
func RewardsPerEpoch(rewards decimal.Decimal, lastClaimBlock, height uint64) decimal.Decimal {
	if height <= lastClaimBlock {
		return decimal.Zero
	}
	blocksElapsed := decimal.NewFromUint64(height - lastClaimBlock)
	epochsElapsed := blocksElapsed.Div(decimal.NewFromInt(epoch.Blocks))
	if epochsElapsed.IsZero() {
		return decimal.Zero
	}
	return rewards.Div(epochsElapsed)
}

// DowntimeLoss estimates rewards forgone during the restake downtime.
func DowntimeLoss(rewardsPerEpoch decimal.Decimal) decimal.Decimal {
	return rewardsPerEpoch.Mul(decimal.NewFromInt(downtimeEpochs))
}

// Decide runs the policy state machine over one cycle's inputs, in strict
// precedence order: unstake/restake, then claim/stake, then no action.
func Decide(in Input, s Settings) Decision {
	rpe := RewardsPerEpoch(in.RewardsAmount, in.LastClaimBlock, in.Height)
	loss := DowntimeLoss(rpe)
	total := in.StakeAmount.Add(in.RewardsAmount).Add(in.ReclaimableSlashedStake)

	d := Decision{
		Action:          ActionNone,
		RewardsPerEpoch: rpe,
		DowntimeLoss:    loss,
		TotalRestake:    total,
	}

	if s.AutoReclaimFullRestakes &&
		in.ReclaimableSlashedStake.GreaterThan(s.MinSlashed) &&
		in.ReclaimableSlashedStake.GreaterThanOrEqual(loss) {
		if total.LessThan(s.MinStakeAmount) {
			d.Action = ActionRestakeSkipped
		} else {
			d.Action = ActionUnstakeRestake
		}
		return d
	}

	if s.AutoStakeRewards &&
		in.RewardsAmount.GreaterThan(s.MinRewards) &&
		in.RewardsAmount.GreaterThanOrEqual(rpe) {
		d.Action = ActionClaimStake
		return d
	}

	return d
}
