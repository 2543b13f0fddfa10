package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfrage76/dusk-manager/internal/epoch"
	"github.com/wolfrage76/dusk-manager/internal/logger"
	"github.com/wolfrage76/dusk-manager/internal/notify"
	"github.com/wolfrage76/dusk-manager/internal/recorder"
	"github.com/wolfrage76/dusk-manager/internal/state"
	"github.com/wolfrage76/dusk-manager/internal/utils"
	"github.com/wolfrage76/dusk-manager/internal/wallet"
)

// Sleep durations for transient conditions inside a cycle.
const (
	noActionGuardSleep = 60 * time.Second
	fetchRetrySleep    = 30 * time.Second
)

// WalletClient is the slice of the wallet adapter the engine drives.
type WalletClient interface {
	BlockHeight(ctx context.Context) (uint64, error)
	StakeInfo(ctx context.Context) (wallet.StakeInfo, error)
	Withdraw(ctx context.Context) error
	Unstake(ctx context.Context) error
	Stake(ctx context.Context, amount decimal.Decimal) error
}

// Sleeper is the countdown primitive the engine paces itself with.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ActionCounter counts decision outcomes for the metrics exporter.
type ActionCounter interface {
	CountAction(action string)
}

// Engine is the stake decision loop: once per epoch-aligned cycle it
// fetches fresh chain data, evaluates the policy and drives the
// multi-step wallet actions.
type Engine struct {
	settings Settings
	wallet   WalletClient
	store    *state.Store
	sleeper  Sleeper
	notifier notify.Notifier
	recorder recorder.Recorder
	counter  ActionCounter
}

func New(settings Settings, w WalletClient, store *state.Store, sleeper Sleeper, n notify.Notifier, rec recorder.Recorder, counter ActionCounter) *Engine {
	return &Engine{
		settings: settings,
		wallet:   w,
		store:    store,
		sleeper:  sleeper,
		notifier: n,
		recorder: rec,
		counter:  counter,
	}
}

// Run executes decision cycles until ctx is cancelled. Every suspension
// point checks ctx; no wallet command is launched after cancellation, but
// an in-flight command is allowed to finish.
func (e *Engine) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := e.cycle(ctx); err != nil {
			return
		}
	}
}

// cycle runs one pass of the state machine. It returns an error only on
// context cancellation.
func (e *Engine) cycle(ctx context.Context) error {
	height, err := e.wallet.BlockHeight(ctx)
	if err != nil {
		logger.Error("ENGINE", "Failed to fetch block height: %v", err)
		return e.sleeper.Sleep(ctx, fetchRetrySleep)
	}
	e.store.SetBlockHeight(height)

	// Already decided "no action" at this height; wait for a new block.
	if last, ok := e.store.LastNoActionBlock(); ok && last == height {
		return e.sleeper.Sleep(ctx, noActionGuardSleep)
	}

	info, err := e.wallet.StakeInfo(ctx)
	if err != nil {
		logger.Warn("ENGINE", "Failed to fetch stake-info: %v", err)
		return e.sleeper.Sleep(ctx, fetchRetrySleep)
	}
	e.store.SetStakeInfo(info)

	in := Input{
		Height:                  height,
		LastClaimBlock:          e.store.LastClaimBlock(),
		StakeAmount:             info.StakeAmount,
		ReclaimableSlashedStake: info.ReclaimableSlashedStake,
		RewardsAmount:           info.RewardsAmount,
	}
	decision := Decide(in, e.settings)
	if e.counter != nil {
		e.counter.CountAction(decision.Action.String())
	}

	switch decision.Action {
	case ActionRestakeSkipped:
		e.store.SetLastAction("Unstake/Restake Skipped (Below Min)")
		e.logAction(ctx, fmt.Sprintf("Balance Info (#%d)", height), balanceLine(info))
		e.logAction(ctx, fmt.Sprintf("Unstake/Restake Skipped (Block #%d)", height),
			fmt.Sprintf("Total restake (%s DUSK) < %s DUSK.",
				utils.FormatAmount(decision.TotalRestake, 4), e.settings.MinStakeAmount))
		e.record(height, decision.Action.String(), "total restake below minimum", info)

	case ActionUnstakeRestake:
		e.store.SetLastAction(fmt.Sprintf("Unstake/Restake @ Block #%d", height))
		e.logAction(ctx, fmt.Sprintf("Balance Info (#%d)", height), balanceLine(info))
		e.logAction(ctx, fmt.Sprintf("Unstake/Restake @ Block #%d", height),
			fmt.Sprintf("Reclaimable: %s, Downtime Loss: %s",
				utils.FormatAmount(info.ReclaimableSlashedStake, 4),
				utils.FormatAmount(decision.DowntimeLoss, 4)))

		if err := e.unstakeAndRestake(ctx, decision.TotalRestake); err != nil {
			e.reportFailure(ctx, height, err, info)
		} else {
			e.logAction(ctx, "Restake Completed",
				fmt.Sprintf("New Stake: %s", utils.FormatAmount(decision.TotalRestake, 4)))
			e.store.SetLastClaimBlock(height)
			e.record(height, decision.Action.String(),
				"restaked "+decision.TotalRestake.String(), info)

			// Two-epoch cooldown: stake is down during the round trip,
			// so skip the next boundary entirely.
			return e.sleeper.Sleep(ctx,
				epoch.SleepDuration(height+uint64(epoch.Blocks), e.settings.BufferBlocks))
		}

	case ActionClaimStake:
		e.store.SetLastAction(fmt.Sprintf("Claim/Stake @ Block %d", height))
		e.logAction(ctx, fmt.Sprintf("Balance Info (#%d)", height), balanceLine(info))
		e.logAction(ctx, "Claim and Stake",
			fmt.Sprintf("Rewards: %s", utils.FormatAmount(info.RewardsAmount, 4)))

		if err := e.claimAndStake(ctx, info.RewardsAmount); err != nil {
			e.reportFailure(ctx, height, err, info)
		} else {
			newStake := info.StakeAmount.Add(info.RewardsAmount)
			e.logAction(ctx, "Stake Completed",
				fmt.Sprintf("New Stake: %s", utils.FormatAmount(newStake, 4)))
			e.store.SetLastClaimBlock(height)
			e.record(height, decision.Action.String(),
				"staked rewards "+info.RewardsAmount.String(), info)
		}

	case ActionNone:
		e.store.SetLastNoActionBlock(height)
		e.store.SetLastAction(fmt.Sprintf("No Action @ Block %d", height))

		if e.store.ConsumeFirstRun() {
			e.store.SetLastAction(fmt.Sprintf("Startup @ Block #%d", height))
			e.notify(ctx, e.startupSummary(height, info))
		} else {
			e.store.AppendJournal(fmt.Sprintf("Block #%d | No Action | Stk: %s Rwd: %s Rcl: %s",
				height,
				utils.FormatAmount(info.StakeAmount, 4),
				utils.FormatAmount(info.RewardsAmount, 4),
				utils.FormatAmount(info.ReclaimableSlashedStake, 4)))
		}
	}

	return e.sleeper.Sleep(ctx, epoch.SleepDuration(height, e.settings.BufferBlocks))
}

// StepError names the wallet command that failed inside a multi-step
// action. The remaining steps are never attempted and nothing is rolled
// back; the operator reconciles manually.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func (e *Engine) unstakeAndRestake(ctx context.Context, total decimal.Decimal) error {
	if err := e.wallet.Withdraw(ctx); err != nil {
		return &StepError{Step: "withdraw", Err: err}
	}
	if err := e.wallet.Unstake(ctx); err != nil {
		return &StepError{Step: "unstake", Err: err}
	}
	if err := e.wallet.Stake(ctx, total); err != nil {
		return &StepError{Step: "stake", Err: err}
	}
	return nil
}

func (e *Engine) claimAndStake(ctx context.Context, rewards decimal.Decimal) error {
	if err := e.wallet.Withdraw(ctx); err != nil {
		return &StepError{Step: "withdraw", Err: err}
	}
	if err := e.wallet.Stake(ctx, rewards); err != nil {
		return &StepError{Step: "stake", Err: err}
	}
	return nil
}

func (e *Engine) reportFailure(ctx context.Context, height uint64, err error, info wallet.StakeInfo) {
	msg := fmt.Sprintf("Action Failed (Block #%d): %v", height, err)
	logger.Error("ENGINE", "%s", msg)
	e.notify(ctx, msg)
	e.record(height, "ACTION_FAILED", err.Error(), info)
	e.store.SetLastAction(fmt.Sprintf("Action Failed @ Block #%d", height))
}

func (e *Engine) startupSummary(height uint64, info wallet.StakeInfo) string {
	snap := e.store.Snapshot()
	total := snap.BalancePublic.Add(snap.BalanceShielded)
	return fmt.Sprintf(
		"Startup @ Block #%d\nBalance: %s DUSK (pub %s / shld %s)\nStaked: %s DUSK\nRewards: %s DUSK\nReclaimable: %s DUSK",
		height,
		utils.FormatAmount(total, 4),
		utils.FormatAmount(snap.BalancePublic, 4),
		utils.FormatAmount(snap.BalanceShielded, 4),
		utils.FormatAmount(info.StakeAmount, 4),
		utils.FormatAmount(info.RewardsAmount, 4),
		utils.FormatAmount(info.ReclaimableSlashedStake, 4),
	)
}

// logAction logs a decision and mirrors it through the notification
// boundary, matching the operator-visibility rule: no silent outcomes.
func (e *Engine) logAction(ctx context.Context, action, details string) {
	logger.Info("ENGINE", "%s: %s", action, details)
	e.notify(ctx, action+": "+details)
}

func (e *Engine) notify(ctx context.Context, message string) {
	notifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.notifier.Notify(notifyCtx, message, e.store.Snapshot()); err != nil {
		logger.Warn("ENGINE", "Notification delivery failed: %v", err)
	}
}

func (e *Engine) record(height uint64, action, details string, info wallet.StakeInfo) {
	err := e.recorder.RecordAction(&recorder.ActionRecord{
		BlockHeight: height,
		Action:      action,
		Details:     details,
		Stake:       info.StakeAmount,
		Rewards:     info.RewardsAmount,
		Reclaimable: info.ReclaimableSlashedStake,
	})
	if err != nil {
		logger.Warn("ENGINE", "Failed to record action: %v", err)
	}
}

func balanceLine(info wallet.StakeInfo) string {
	return fmt.Sprintf("Rwd: %s, Stk: %s, Rcl: %s",
		utils.FormatAmount(info.RewardsAmount, 4),
		utils.FormatAmount(info.StakeAmount, 4),
		utils.FormatAmount(info.ReclaimableSlashedStake, 4))
}
