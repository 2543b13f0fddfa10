package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wolfrage76/dusk-manager/internal/executor"
	"github.com/wolfrage76/dusk-manager/internal/logger"
)

// ErrUnparseable is returned when a command succeeded but its output did
// not contain every field the caller needs. No partial values are ever
// returned alongside it.
var ErrUnparseable = errors.New("wallet: unparseable output")

// StakeInfo is the triple reported by `rusk-wallet stake-info`.
type StakeInfo struct {
	StakeAmount             decimal.Decimal
	ReclaimableSlashedStake decimal.Decimal
	RewardsAmount           decimal.Decimal
}

// Addresses groups the wallet's profiles by account type.
type Addresses struct {
	Public   []string
	Shielded []string
}

// Client wraps the executor with the rusk-wallet / ruskquery command
// vocabulary and parses their textual responses.
type Client struct {
	run       executor.Runner
	walletCmd string
	queryCmd  string
	password  string
	sudo      string
}

func NewClient(run executor.Runner, walletCmd, queryCmd, password string, useSudo bool) *Client {
	sudo := ""
	if useSudo {
		sudo = "sudo "
	}
	return &Client{
		run:       run,
		walletCmd: walletCmd,
		queryCmd:  queryCmd,
		password:  password,
		sudo:      sudo,
	}
}

func (c *Client) query(ctx context.Context, args string) (string, error) {
	return c.run.Run(ctx, fmt.Sprintf("%s%s %s", c.sudo, c.queryCmd, args))
}

func (c *Client) wallet(ctx context.Context, args string) (string, error) {
	return c.run.Run(ctx, fmt.Sprintf("%s%s --password %s %s", c.sudo, c.walletCmd, c.password, args))
}

// BlockHeight fetches the node's current chain height.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	out, err := c.query(ctx, "block-height")
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseUint(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: block-height %q", ErrUnparseable, out)
	}
	return height, nil
}

// PeerCount fetches the node's current peer count. Zero is a valid
// observation, not an error.
func (c *Client) PeerCount(ctx context.Context) (int, error) {
	out, err := c.query(ctx, "peers")
	if err != nil {
		return 0, err
	}
	peers, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("%w: peers %q", ErrUnparseable, out)
	}
	return peers, nil
}

// StakeInfo fetches and parses `stake-info`. If any of the three required
// fields is missing from the output the whole result is ErrUnparseable.
func (c *Client) StakeInfo(ctx context.Context) (StakeInfo, error) {
	out, err := c.wallet(ctx, "stake-info")
	if err != nil {
		return StakeInfo{}, err
	}
	return ParseStakeInfo(out)
}

// Profiles fetches and parses the wallet's addresses.
func (c *Client) Profiles(ctx context.Context) (Addresses, error) {
	out, err := c.wallet(ctx, "profiles")
	if err != nil {
		return Addresses{}, err
	}
	return ParseProfiles(out), nil
}

// SpendableBalance fetches the spendable balance of a single address.
func (c *Client) SpendableBalance(ctx context.Context, addr string) (decimal.Decimal, error) {
	out, err := c.wallet(ctx, "balance --spendable --address "+addr)
	if err != nil {
		return decimal.Zero, err
	}
	return ParseSpendable(out)
}

// Balances sums spendable balances across all wallet addresses. The
// per-address queries run concurrently; a failed address contributes
// zero rather than failing the whole operation.
func (c *Client) Balances(ctx context.Context) (public, shielded decimal.Decimal, err error) {
	addrs, err := c.Profiles(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	sum := func(addresses []string) decimal.Decimal {
		results := make([]decimal.Decimal, len(addresses))
		var wg sync.WaitGroup
		for i, addr := range addresses {
			wg.Add(1)
			go func(i int, addr string) {
				defer wg.Done()
				bal, err := c.SpendableBalance(ctx, addr)
				if err != nil {
					logger.Warn("WALLET", "Balance query failed for %s: %v", addr, err)
					return
				}
				results[i] = bal
			}(i, addr)
		}
		wg.Wait()

		total := decimal.Zero
		for _, bal := range results {
			total = total.Add(bal)
		}
		return total
	}

	return sum(addrs.Public), sum(addrs.Shielded), nil
}

// Withdraw moves accumulated rewards to the wallet.
func (c *Client) Withdraw(ctx context.Context) error {
	_, err := c.wallet(ctx, "withdraw")
	return err
}

// Unstake releases the active stake.
func (c *Client) Unstake(ctx context.Context) error {
	_, err := c.wallet(ctx, "unstake")
	return err
}

// Stake stakes the given amount.
func (c *Client) Stake(ctx context.Context, amount decimal.Decimal) error {
	_, err := c.wallet(ctx, "stake --amt "+amount.String())
	return err
}
