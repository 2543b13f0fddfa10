package wallet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// scriptRunner answers command lines from a canned table keyed by
// substring and records everything it was asked to run.
type scriptRunner struct {
	responses map[string]string
	errors    map[string]error
	commands  []string
}

func (r *scriptRunner) Run(_ context.Context, commandLine string) (string, error) {
	r.commands = append(r.commands, commandLine)
	for key, err := range r.errors {
		if strings.Contains(commandLine, key) {
			return "", err
		}
	}
	for key, out := range r.responses {
		if strings.Contains(commandLine, key) {
			return out, nil
		}
	}
	return "", errors.New("no canned response for: " + commandLine)
}

func newTestClient(r *scriptRunner) *Client {
	return NewClient(r, "rusk-wallet", "ruskquery", "hunter2", false)
}

func TestBlockHeight(t *testing.T) {
	r := &scriptRunner{responses: map[string]string{"block-height": "123456\n"}}
	c := newTestClient(r)

	h, err := c.BlockHeight(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 123456 {
		t.Fatalf("height = %d, want 123456", h)
	}
	if len(r.commands) != 1 || r.commands[0] != "ruskquery block-height" {
		t.Fatalf("commands = %v", r.commands)
	}
}

func TestBlockHeight_GarbageIsUnparseable(t *testing.T) {
	r := &scriptRunner{responses: map[string]string{"block-height": "node starting..."}}
	c := newTestClient(r)

	_, err := c.BlockHeight(context.Background())
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("error %v is not ErrUnparseable", err)
	}
}

func TestPeerCount_ZeroIsValid(t *testing.T) {
	r := &scriptRunner{responses: map[string]string{"peers": "0"}}
	c := newTestClient(r)

	peers, err := c.PeerCount(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peers != 0 {
		t.Fatalf("peers = %d, want 0", peers)
	}
}

func TestWalletCommands_CarryPassword(t *testing.T) {
	r := &scriptRunner{responses: map[string]string{"stake-info": stakeInfoOutput}}
	c := newTestClient(r)

	if _, err := c.StakeInfo(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "rusk-wallet --password hunter2 stake-info"
	if len(r.commands) != 1 || r.commands[0] != want {
		t.Fatalf("commands = %v, want [%q]", r.commands, want)
	}
}

func TestSudoPrefix(t *testing.T) {
	r := &scriptRunner{responses: map[string]string{"block-height": "1"}}
	c := NewClient(r, "rusk-wallet", "ruskquery", "hunter2", true)

	if _, err := c.BlockHeight(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.commands[0] != "sudo ruskquery block-height" {
		t.Fatalf("command = %q", r.commands[0])
	}
}

func TestStake_AmountArgument(t *testing.T) {
	r := &scriptRunner{responses: map[string]string{"stake": "ok"}}
	c := newTestClient(r)

	if err := c.Stake(context.Background(), decimal.RequireFromString("2008.5")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(r.commands[0], "stake --amt 2008.5") {
		t.Fatalf("command = %q", r.commands[0])
	}
}

func TestBalances_FailedAddressContributesZero(t *testing.T) {
	profiles := `
Shielded account - shieldA
Public account   - pubA
Shielded account - shieldB
`
	r := &scriptRunner{
		responses: map[string]string{
			"profiles":          profiles,
			"--address shieldA": "Total: 10.5",
			"--address pubA":    "Total: 3.25",
		},
		errors: map[string]error{
			"--address shieldB": errors.New("timeout"),
		},
	}
	c := newTestClient(r)

	public, shielded, err := c.Balances(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !public.Equal(decimal.RequireFromString("3.25")) {
		t.Fatalf("public = %s, want 3.25", public)
	}
	// shieldB failed and contributes zero; the sum still includes shieldA.
	if !shielded.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("shielded = %s, want 10.5", shielded)
	}
}

func TestBalances_ProfilesFailureIsFatal(t *testing.T) {
	r := &scriptRunner{errors: map[string]error{"profiles": errors.New("wallet locked")}}
	c := newTestClient(r)

	if _, _, err := c.Balances(context.Background()); err == nil {
		t.Fatal("expected error when profiles cannot be listed")
	}
}
