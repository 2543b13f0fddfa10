package display

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wolfrage76/dusk-manager/internal/market"
	"github.com/wolfrage76/dusk-manager/internal/state"
	"github.com/wolfrage76/dusk-manager/internal/wallet"
)

func TestRenderBlock_MarketLineUsesCompactFigures(t *testing.T) {
	snap := state.Snapshot{
		BlockHeight: 123456,
		PeerCount:   25,
		Market: market.Snapshot{
			Price:       0.305,
			MarketCap:   145000000,
			Volume24h:   9200000,
			Change24Pct: -2.4,
		},
		StakeInfo: wallet.StakeInfo{
			StakeAmount: decimal.RequireFromString("2000"),
		},
	}

	out := renderBlock(snap)

	if !strings.Contains(out, "Cap: $145 M") {
		t.Fatalf("market cap missing or not compact:\n%s", out)
	}
	if !strings.Contains(out, "Vol: $9.2 M") {
		t.Fatalf("volume missing or not compact:\n%s", out)
	}
	if !strings.Contains(out, "#123456") {
		t.Fatalf("block height missing:\n%s", out)
	}
}
