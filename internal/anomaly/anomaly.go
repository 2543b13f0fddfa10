package anomaly

import "fmt"

// Default thresholds in polling cycles (10s cadence): a stalled height
// alerts after ~100s, a low peer count after ~2400s.
const (
	DefaultStallThreshold   = 10
	DefaultLowPeerThreshold = 240
)

// Alert is raised once per sustained episode crossing a threshold.
type Alert struct {
	Severity string
	Message  string
}

// Detector tracks consecutive stalled-height and low-peer observations.
// Both detectors are edge-armed: the counter resets after firing, so a
// continuing episode does not alert again until it crosses the threshold
// a second time.
type Detector struct {
	minPeers         int
	stallThreshold   int
	lowPeerThreshold int

	lastHeight  uint64
	hasBaseline bool
	stalledFor  int
	lowPeersFor int
}

func NewDetector(minPeers int) *Detector {
	return &Detector{
		minPeers:         minPeers,
		stallThreshold:   DefaultStallThreshold,
		lowPeerThreshold: DefaultLowPeerThreshold,
	}
}

// ObserveHeight feeds one height observation. The first observation only
// sets the baseline. Returns a non-nil Alert when the stall threshold is
// crossed.
func (d *Detector) ObserveHeight(height uint64) *Alert {
	if !d.hasBaseline {
		d.hasBaseline = true
		d.lastHeight = height
		d.stalledFor = 0
		return nil
	}

	if height == d.lastHeight {
		d.stalledFor++
	} else {
		d.stalledFor = 0
	}
	d.lastHeight = height

	if d.stalledFor >= d.stallThreshold {
		seconds := d.stalledFor * 10
		d.stalledFor = 0
		return &Alert{
			Severity: "critical",
			Message:  fmt.Sprintf("WARNING! Block height has not changed for %d seconds. Last height: %d", seconds, height),
		}
	}
	return nil
}

// ObservePeers feeds one peer-count observation. Returns a non-nil Alert
// when the low-peer threshold is crossed.
func (d *Detector) ObservePeers(peers int) *Alert {
	if peers < d.minPeers || peers <= 0 {
		d.lowPeersFor++
	} else {
		d.lowPeersFor = 0
	}

	if d.lowPeersFor >= d.lowPeerThreshold {
		seconds := d.lowPeersFor * 10
		d.lowPeersFor = 0
		return &Alert{
			Severity: "critical",
			Message:  fmt.Sprintf("WARNING! Low peer count for %d seconds. Current count: %d", seconds, peers),
		}
	}
	return nil
}
