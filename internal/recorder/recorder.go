package recorder

import "github.com/shopspring/decimal"

// ActionRecord captures one decision outcome for later analysis.
type ActionRecord struct {
	BlockHeight uint64
	Action      string // "CLAIM_STAKE", "UNSTAKE_RESTAKE", "RESTAKE_SKIPPED", "ACTION_FAILED", "NO_ACTION"
	Details     string
	Stake       decimal.Decimal
	Rewards     decimal.Decimal
	Reclaimable decimal.Decimal
}

// Recorder persists decision history.
type Recorder interface {
	RecordAction(rec *ActionRecord) error
	Close() error
}

// NoopRecorder discards everything; used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordAction(*ActionRecord) error { return nil }
func (*NoopRecorder) Close() error                     { return nil }
