package epoch

import (
	"context"
	"time"

	"github.com/wolfrage76/dusk-manager/internal/state"
)

const (
	// Blocks is the fixed epoch length on-chain.
	Blocks int64 = 2160
	// BlockTime is the assumed block interval.
	BlockTime = 10 * time.Second
	// MinSleep is the floor applied when the buffer point has already
	// passed, so the scheduler never computes a zero or negative sleep.
	MinSleep = 300 * time.Second
)

// BlocksUntilNext returns how many blocks remain until the next epoch
// boundary minus the safety buffer. The result may be negative when the
// buffer point has already passed.
func BlocksUntilNext(height uint64, bufferBlocks int64) int64 {
	return Blocks - int64(height)%Blocks - bufferBlocks
}

// SleepDuration converts the remaining blocks into a sleep duration,
// clamped to MinSleep whenever the buffer point has passed.
func SleepDuration(height uint64, bufferBlocks int64) time.Duration {
	blocks := BlocksUntilNext(height, bufferBlocks)
	if blocks <= 0 {
		return MinSleep
	}
	return time.Duration(blocks) * BlockTime
}

// MinutesUntilNext reports whole minutes until the buffer point before
// the next epoch boundary. Reporting only, never used for control flow.
func MinutesUntilNext(height uint64, bufferBlocks int64) int64 {
	blocks := BlocksUntilNext(height, bufferBlocks)
	if blocks < 0 {
		blocks = 0
	}
	return blocks * int64(BlockTime/time.Second) / 60
}

// Countdown runs interruptible sleeps with live remaining-time feedback
// written to the shared state store.
type Countdown struct {
	store *state.Store
}

func NewCountdown(store *state.Store) *Countdown {
	return &Countdown{store: store}
}

// Sleep blocks for d, decrementing the store's remaining seconds once a
// second so display consumers observe smooth progress. It is cancellable
// only by ctx (process shutdown), never by state changes.
func (c *Countdown) Sleep(ctx context.Context, d time.Duration) error {
	seconds := int(d / time.Second)
	completion := "@ " + time.Now().Add(d).Format("15:04")
	c.store.SetCountdown(seconds, completion)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for remaining := seconds; remaining > 0; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			remaining = c.store.TickCountdown(1)
		}
	}
	return nil
}

// SleepUntilNext sleeps until bufferBlocks before the next epoch boundary
// relative to height.
func (c *Countdown) SleepUntilNext(ctx context.Context, height uint64, bufferBlocks int64) error {
	return c.Sleep(ctx, SleepDuration(height, bufferBlocks))
}
