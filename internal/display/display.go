package display

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfrage76/dusk-manager/internal/config"
	"github.com/wolfrage76/dusk-manager/internal/executor"
	"github.com/wolfrage76/dusk-manager/internal/logger"
	"github.com/wolfrage76/dusk-manager/internal/state"
	"github.com/wolfrage76/dusk-manager/internal/utils"
)

const (
	red        = "\033[0;31m"
	green      = "\033[0;32m"
	yellow     = "\033[1;33m"
	blue       = "\033[0;34m"
	cyan       = "\033[0;36m"
	lightRed   = "\033[1;31m"
	lightGreen = "\033[1;32m"
	lightBlue  = "\033[1;34m"
	lightWhite = "\033[1;37m"
	reset      = "\033[0m"
)

// PrintBanner writes the startup byline plus the effective toggle and
// notification-channel summary, once, before the loops start.
func PrintBanner(cfg *config.Config) {
	services := "None"
	if list := cfg.Notifications.Services(); len(list) > 0 {
		services = strings.Join(list, " ")
	}

	fmt.Printf("\n  %sDusk Stake Management & Monitoring: By Wolfrage%s\n", lightBlue, reset)
	fmt.Printf("  %s%s%s\n", lightWhite, strings.Repeat("=", 47), reset)
	fmt.Printf("\tEnable tmux Support:     %v\n", cfg.General.EnableTmux)
	fmt.Printf("\tAuto Staking Rewards:    %v\n", cfg.General.AutoStakeRewards)
	fmt.Printf("\tAuto Restake to Reclaim: %v\n", cfg.General.AutoReclaimFullRestakes)
	fmt.Printf("\tEnabled Notifications:   %s%s%s\n\n", yellow, services, reset)
}

// Renderer is the presentation loop: once a second it reads a state
// snapshot and redraws the terminal block, optionally mirroring a
// condensed line into the tmux status bar. It never mutates state and
// its failures never reach the other loops.
type Renderer struct {
	store      *state.Store
	statusBar  config.StatusBarConfig
	enableTmux bool
	runner     executor.Runner
}

func NewRenderer(store *state.Store, statusBar config.StatusBarConfig, enableTmux bool, runner executor.Runner) *Renderer {
	return &Renderer{
		store:      store,
		statusBar:  statusBar,
		enableTmux: enableTmux,
		runner:     runner,
	}
}

func (r *Renderer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.renderOnce(ctx)
			}
		}
	}()
}

func (r *Renderer) renderOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("DISPLAY", "Render failed: %v", rec)
			time.Sleep(5 * time.Second)
		}
	}()

	snap := r.store.Snapshot()
	fmt.Print(renderBlock(snap))

	if r.enableTmux {
		if err := r.updateTmux(ctx, snap); err != nil {
			logger.Error("DISPLAY", "Failed to update tmux status bar. Is tmux running?")
			r.enableTmux = false
		}
	}
}

func renderBlock(snap state.Snapshot) string {
	price := snap.Market.Price
	totalBal := snap.BalancePublic.Add(snap.BalanceShielded)

	dispTime := "0s"
	if snap.RemainingSeconds > 0 {
		dispTime = utils.FormatHMS(snap.RemainingSeconds)
	}

	// Countdown color by time remaining
	timerColor := lightWhite
	switch {
	case snap.RemainingSeconds <= 3600:
		timerColor = red
	case snap.RemainingSeconds <= 7200:
		timerColor = yellow
	case snap.RemainingSeconds <= 10800:
		timerColor = green
	}

	peerColor := red
	switch {
	case snap.PeerCount > 40:
		peerColor = lightGreen
	case snap.PeerCount > 16:
		peerColor = yellow
	}

	chg := snap.Market.Change24Pct
	chgColor := reset
	chgSign := ""
	if chg > 0 {
		chgColor = green
		chgSign = "+"
	} else if chg < 0 {
		chgColor = red
	}

	usd := func(amount float64) string { return utils.FormatUSD(amount * price) }
	now := time.Now().Format("15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, " %s=======%s %s Block: %s#%d %sPeers: %s%d%s %s=======%s\n",
		lightWhite, reset, now, lightBlue, snap.BlockHeight, reset, peerColor, snap.PeerCount, reset, lightWhite, reset)
	fmt.Fprintf(&b, "    %sLast Action%s   | %s%s%s\n", cyan, reset, cyan, snap.LastAction, reset)
	fmt.Fprintf(&b, "    %sNext Check%s    | %s%s%s (%s)\n", lightGreen, reset, timerColor, dispTime, reset, snap.CompletionTime)
	fmt.Fprintf(&b, "    %sBalance%s       | @ %s (%s%s%.2f%%%s 24h)\n",
		lightWhite, reset, utils.FormatUSD(price), chgColor, chgSign, chg, reset)
	fmt.Fprintf(&b, "    %sMarket%s        | Cap: %s  Vol: %s\n",
		lightWhite, reset, utils.FormatCompactUSD(snap.Market.MarketCap), utils.FormatCompactUSD(snap.Market.Volume24h))
	fmt.Fprintf(&b, "      ├─ %sPublic%s   | %s (%s)\n", yellow, reset,
		utils.FormatAmount(snap.BalancePublic, 4), usd(snap.BalancePublic.InexactFloat64()))
	fmt.Fprintf(&b, "      └─ %sShielded%s | %s (%s)\n", blue, reset,
		utils.FormatAmount(snap.BalanceShielded, 4), usd(snap.BalanceShielded.InexactFloat64()))
	fmt.Fprintf(&b, "         %sTotal%s    | %s DUSK (%s)\n", lightWhite, reset,
		utils.FormatAmount(totalBal, 4), usd(totalBal.InexactFloat64()))
	fmt.Fprintf(&b, "    %sStaked%s        | %s (%s)\n", lightWhite, reset,
		utils.FormatAmount(snap.StakeInfo.StakeAmount, 4), usd(snap.StakeInfo.StakeAmount.InexactFloat64()))
	fmt.Fprintf(&b, "    %sRewards%s       | %s (%s)\n", yellow, reset,
		utils.FormatAmount(snap.StakeInfo.RewardsAmount, 4), usd(snap.StakeInfo.RewardsAmount.InexactFloat64()))
	fmt.Fprintf(&b, "    %sReclaimable%s   | %s (%s)\n", lightRed, reset,
		utils.FormatAmount(snap.StakeInfo.ReclaimableSlashedStake, 4), usd(snap.StakeInfo.ReclaimableSlashedStake.InexactFloat64()))
	b.WriteString(" ===============================================\n")
	return b.String()
}

// updateTmux pushes a condensed status line into tmux, honoring the
// per-field visibility toggles.
func (r *Renderer) updateTmux(ctx context.Context, snap state.Snapshot) error {
	sb := r.statusBar
	var parts []string

	if config.Show(sb.ShowCurrentBlock) {
		parts = append(parts, fmt.Sprintf("Blk: #%d", snap.BlockHeight))
	}
	if config.Show(sb.ShowStaked) {
		parts = append(parts, "Stk: "+utils.FormatAmount(snap.StakeInfo.StakeAmount, 4))
	}
	if config.Show(sb.ShowReclaimable) {
		parts = append(parts, "Rcl: "+utils.FormatAmount(snap.StakeInfo.ReclaimableSlashedStake, 4))
	}
	if config.Show(sb.ShowRewards) {
		parts = append(parts, "Rwd: "+utils.FormatAmount(snap.StakeInfo.RewardsAmount, 4))
	}
	if config.Show(sb.ShowPublic) || config.Show(sb.ShowShielded) {
		bal := "Bal:"
		if !config.Show(sb.ShowTotal) {
			bal = ""
		}
		if config.Show(sb.ShowPublic) {
			bal += " P:" + utils.FormatAmount(snap.BalancePublic, 4)
		}
		if config.Show(sb.ShowShielded) {
			bal += " S:" + utils.FormatAmount(snap.BalanceShielded, 4)
		}
		parts = append(parts, strings.TrimSpace(bal))
	}
	if config.Show(sb.ShowPrice) {
		parts = append(parts, fmt.Sprintf("$USD: %.3f (%.2f%% 24h)", snap.Market.Price, snap.Market.Change24Pct))
	}
	if config.Show(sb.ShowTimer) {
		timer := "Next: " + utils.FormatHMS(snap.RemainingSeconds)
		if config.Show(sb.ShowTriggerTime) && snap.CompletionTime != "" {
			timer += " (" + snap.CompletionTime + ")"
		}
		parts = append(parts, timer)
	}
	if config.Show(sb.ShowPeerCount) {
		parts = append(parts, fmt.Sprintf("Peers: %d", snap.PeerCount))
	}

	status := "> " + strings.Join(parts, " | ")
	_, err := r.runner.Run(ctx, fmt.Sprintf("tmux set-option -g status-left %q", status))
	return err
}
