package poller

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfrage76/dusk-manager/internal/anomaly"
	"github.com/wolfrage76/dusk-manager/internal/logger"
	"github.com/wolfrage76/dusk-manager/internal/market"
	"github.com/wolfrage76/dusk-manager/internal/metrics"
	"github.com/wolfrage76/dusk-manager/internal/notify"
	"github.com/wolfrage76/dusk-manager/internal/state"
	"github.com/wolfrage76/dusk-manager/internal/wallet"
)

const (
	// pollInterval is the fast cadence: block height and peers.
	pollInterval = 10 * time.Second
	// slowEvery is how many fast cycles pass between the expensive
	// fetches (balances, stake-info, market), roughly every 5.5 minutes.
	slowEvery = 33
)

// WalletClient is the slice of the wallet adapter the poller reads from.
type WalletClient interface {
	BlockHeight(ctx context.Context) (uint64, error)
	PeerCount(ctx context.Context) (int, error)
	StakeInfo(ctx context.Context) (wallet.StakeInfo, error)
	Balances(ctx context.Context) (public, shielded decimal.Decimal, err error)
}

// MarketClient fetches the spot-market snapshot.
type MarketClient interface {
	Fetch(ctx context.Context) (market.Snapshot, error)
}

// Broadcaster pushes fresh state to live dashboard clients.
type Broadcaster interface {
	BroadcastUpdate()
}

// Poller is the fast observation loop: every 10s it refreshes height and
// peer count, feeds the anomaly detector, and on every Nth cycle also
// refreshes balances, stake info and the market snapshot.
type Poller struct {
	wallet      WalletClient
	market      MarketClient
	store       *state.Store
	detector    *anomaly.Detector
	notifier    notify.Notifier
	exporter    *metrics.Exporter
	broadcaster Broadcaster
}

func New(w WalletClient, m MarketClient, store *state.Store, det *anomaly.Detector, n notify.Notifier, exp *metrics.Exporter, b Broadcaster) *Poller {
	return &Poller{
		wallet:      w,
		market:      m,
		store:       store,
		detector:    det,
		notifier:    n,
		exporter:    exp,
		broadcaster: b,
	}
}

// Start launches the polling loop. An initial warm-up fetch fills the
// display before the first decision cycle completes. The goroutine
// registers on wg so shutdown can join it.
func (p *Poller) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.warmUp(ctx)

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		loopCount := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loopCount++
				if loopCount >= slowEvery {
					loopCount = 0
					p.slowCycle(ctx)
				}
				p.fastCycle(ctx)
			}
		}
	}()
}

// warmUp initializes the display values at startup.
func (p *Poller) warmUp(ctx context.Context) {
	if height, err := p.wallet.BlockHeight(ctx); err == nil {
		p.store.SetBlockHeight(height)
	}
	p.slowCycle(ctx)
	p.publish()
}

func (p *Poller) fastCycle(ctx context.Context) {
	height, err := p.wallet.BlockHeight(ctx)
	if err != nil {
		logger.Error("POLL", "Failed to fetch block height: %v", err)
		return
	}
	p.store.SetBlockHeight(height)

	if alert := p.detector.ObserveHeight(height); alert != nil {
		p.raise(ctx, "stalled_height", alert)
	}

	peers, err := p.wallet.PeerCount(ctx)
	if err != nil {
		logger.Error("POLL", "Failed to fetch peers: %v", err)
		return
	}
	p.store.SetPeerCount(peers)

	if alert := p.detector.ObservePeers(peers); alert != nil {
		p.raise(ctx, "low_peers", alert)
	}

	p.publish()
}

func (p *Poller) slowCycle(ctx context.Context) {
	public, shielded, err := p.wallet.Balances(ctx)
	if err != nil {
		logger.Warn("POLL", "Failed to fetch wallet balances: %v", err)
	} else {
		p.store.SetBalances(public, shielded)
	}

	info, err := p.wallet.StakeInfo(ctx)
	if err != nil {
		logger.Warn("POLL", "Failed to fetch stake-info: %v", err)
	} else {
		p.store.SetStakeInfo(info)
	}

	snap, err := p.market.Fetch(ctx)
	if err != nil {
		logger.Debug("POLL", "Price feed unavailable: %v", err)
	} else {
		p.store.SetMarket(snap)
	}
}

func (p *Poller) raise(ctx context.Context, kind string, alert *anomaly.Alert) {
	logger.Error("POLL", "%s", alert.Message)
	if p.exporter != nil {
		p.exporter.CountAlert(kind)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := p.notifier.Notify(notifyCtx, alert.Message, p.store.Snapshot()); err != nil {
		logger.Warn("POLL", "Alert notification failed: %v", err)
	}
}

func (p *Poller) publish() {
	snap := p.store.Snapshot()
	if p.exporter != nil {
		p.exporter.Update(snap)
	}
	if p.broadcaster != nil {
		p.broadcaster.BroadcastUpdate()
	}
}
