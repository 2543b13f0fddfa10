package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfrage76/dusk-manager/internal/state"
)

// Exporter publishes the shared state as Prometheus gauges. It only ever
// reads snapshots; the serving handler lives on the dashboard mux.
type Exporter struct {
	blockHeight      prometheus.Gauge
	peerCount        prometheus.Gauge
	stakeAmount      prometheus.Gauge
	rewardsAmount    prometheus.Gauge
	reclaimable      prometheus.Gauge
	balancePublic    prometheus.Gauge
	balanceShielded  prometheus.Gauge
	price            prometheus.Gauge
	change24h        prometheus.Gauge
	countdownSeconds prometheus.Gauge
	actionsTotal     *prometheus.CounterVec
	alertsTotal      *prometheus.CounterVec
}

func NewExporter(prefix string) *Exporter {
	if prefix == "" {
		prefix = "dusk"
	}

	e := &Exporter{
		blockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_block_height",
			Help: "Latest observed chain height",
		}),
		peerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_peer_count",
			Help: "Latest observed peer count",
		}),
		stakeAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_stake_amount",
			Help: "Eligible stake in DUSK",
		}),
		rewardsAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_rewards_amount",
			Help: "Accumulated rewards in DUSK",
		}),
		reclaimable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_reclaimable_slashed_stake",
			Help: "Reclaimable slashed stake in DUSK",
		}),
		balancePublic: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_balance_public",
			Help: "Total spendable public balance in DUSK",
		}),
		balanceShielded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_balance_shielded",
			Help: "Total spendable shielded balance in DUSK",
		}),
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_price_usd",
			Help: "DUSK spot price in USD",
		}),
		change24h: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_price_change_24h_percent",
			Help: "24h price change percentage",
		}),
		countdownSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_next_check_seconds",
			Help: "Seconds until the next decision cycle",
		}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_actions_total",
			Help: "Decision outcomes by action",
		}, []string{"action"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_alerts_total",
			Help: "Anomaly alerts by kind",
		}, []string{"kind"}),
	}

	prometheus.MustRegister(e.blockHeight)
	prometheus.MustRegister(e.peerCount)
	prometheus.MustRegister(e.stakeAmount)
	prometheus.MustRegister(e.rewardsAmount)
	prometheus.MustRegister(e.reclaimable)
	prometheus.MustRegister(e.balancePublic)
	prometheus.MustRegister(e.balanceShielded)
	prometheus.MustRegister(e.price)
	prometheus.MustRegister(e.change24h)
	prometheus.MustRegister(e.countdownSeconds)
	prometheus.MustRegister(e.actionsTotal)
	prometheus.MustRegister(e.alertsTotal)

	return e
}

// Update refreshes every gauge from a state snapshot.
func (e *Exporter) Update(snap state.Snapshot) {
	e.blockHeight.Set(float64(snap.BlockHeight))
	e.peerCount.Set(float64(snap.PeerCount))
	e.stakeAmount.Set(snap.StakeInfo.StakeAmount.InexactFloat64())
	e.rewardsAmount.Set(snap.StakeInfo.RewardsAmount.InexactFloat64())
	e.reclaimable.Set(snap.StakeInfo.ReclaimableSlashedStake.InexactFloat64())
	e.balancePublic.Set(snap.BalancePublic.InexactFloat64())
	e.balanceShielded.Set(snap.BalanceShielded.InexactFloat64())
	e.price.Set(snap.Market.Price)
	e.change24h.Set(snap.Market.Change24Pct)
	e.countdownSeconds.Set(float64(snap.RemainingSeconds))
}

// CountAction increments the decision-outcome counter.
func (e *Exporter) CountAction(action string) {
	e.actionsTotal.WithLabelValues(action).Inc()
}

// CountAlert increments the anomaly-alert counter.
func (e *Exporter) CountAlert(kind string) {
	e.alertsTotal.WithLabelValues(kind).Inc()
}
