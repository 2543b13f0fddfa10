package state

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wolfrage76/dusk-manager/internal/market"
	"github.com/wolfrage76/dusk-manager/internal/wallet"
)

// Snapshot is a full value copy of the shared state, safe to hand to
// presentation consumers while the loops keep writing.
type Snapshot struct {
	BlockHeight uint64 `json:"block_height"`
	PeerCount   int    `json:"peer_count"`

	RemainingSeconds int    `json:"remaining_seconds"`
	CompletionTime   string `json:"completion_time"`

	LastNoActionBlock uint64 `json:"last_no_action_block"`
	HasNoActionBlock  bool   `json:"has_no_action_block"`
	LastClaimBlock    uint64 `json:"last_claim_block"`

	StakeInfo wallet.StakeInfo `json:"stake_info"`

	BalancePublic   decimal.Decimal `json:"balance_public"`
	BalanceShielded decimal.Decimal `json:"balance_shielded"`

	LastAction string `json:"last_action"`
	FirstRun   bool   `json:"first_run"`

	Market   market.Snapshot `json:"market"`
	MarketOK bool            `json:"market_ok"`

	Journal []JournalEntry `json:"journal"`
}

// Store is the single process-wide record shared by the polling, decision
// and presentation loops. Every read and write goes through the mutex;
// Snapshot returns a whole-record copy so no consumer can observe a
// half-updated stake triple.
type Store struct {
	mu      sync.RWMutex
	snap    Snapshot
	journal *journal
}

func NewStore() *Store {
	return &Store{
		snap: Snapshot{
			LastAction: "Starting Up",
			FirstRun:   true,
		},
		journal: newJournal(journalCapacity),
	}
}

// Snapshot returns a copy of the current state, including the journal.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Journal = s.journal.entries()
	return snap
}

func (s *Store) SetBlockHeight(height uint64) {
	s.mu.Lock()
	s.snap.BlockHeight = height
	s.mu.Unlock()
}

func (s *Store) BlockHeight() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.BlockHeight
}

func (s *Store) SetPeerCount(peers int) {
	s.mu.Lock()
	s.snap.PeerCount = peers
	s.mu.Unlock()
}

// SetStakeInfo replaces the whole stake triple atomically.
func (s *Store) SetStakeInfo(info wallet.StakeInfo) {
	s.mu.Lock()
	s.snap.StakeInfo = info
	s.mu.Unlock()
}

func (s *Store) SetBalances(public, shielded decimal.Decimal) {
	s.mu.Lock()
	s.snap.BalancePublic = public
	s.snap.BalanceShielded = shielded
	s.mu.Unlock()
}

func (s *Store) SetMarket(snap market.Snapshot) {
	s.mu.Lock()
	s.snap.Market = snap
	s.snap.MarketOK = true
	s.mu.Unlock()
}

// SetCountdown starts a new countdown. Only the epoch countdown calls this.
func (s *Store) SetCountdown(seconds int, completion string) {
	s.mu.Lock()
	s.snap.RemainingSeconds = seconds
	s.snap.CompletionTime = completion
	s.mu.Unlock()
}

// TickCountdown decrements the remaining seconds by step and returns the
// new value. It never goes below zero.
func (s *Store) TickCountdown(step int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.RemainingSeconds -= step
	if s.snap.RemainingSeconds < 0 {
		s.snap.RemainingSeconds = 0
	}
	return s.snap.RemainingSeconds
}

func (s *Store) RemainingSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.RemainingSeconds
}

func (s *Store) SetLastAction(action string) {
	s.mu.Lock()
	s.snap.LastAction = action
	s.mu.Unlock()
}

func (s *Store) SetLastNoActionBlock(height uint64) {
	s.mu.Lock()
	s.snap.LastNoActionBlock = height
	s.snap.HasNoActionBlock = true
	s.mu.Unlock()
}

// LastNoActionBlock returns the height of the last no-action decision and
// whether one has been recorded.
func (s *Store) LastNoActionBlock() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.LastNoActionBlock, s.snap.HasNoActionBlock
}

func (s *Store) SetLastClaimBlock(height uint64) {
	s.mu.Lock()
	s.snap.LastClaimBlock = height
	s.mu.Unlock()
}

func (s *Store) LastClaimBlock() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.LastClaimBlock
}

// ConsumeFirstRun reports whether this is the first successful cycle and
// clears the flag, so the startup summary fires exactly once.
func (s *Store) ConsumeFirstRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.snap.FirstRun
	s.snap.FirstRun = false
	return first
}

// AppendJournal adds a timestamped entry to the bounded journal.
func (s *Store) AppendJournal(text string) {
	s.mu.Lock()
	s.journal.append(text)
	s.mu.Unlock()
}
