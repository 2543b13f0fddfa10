package wallet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	eligibleRe    = regexp.MustCompile(`Eligible stake:\s*([\d.]+)\s*DUSK`)
	reclaimableRe = regexp.MustCompile(`Reclaimable slashed stake:\s*([\d.]+)\s*DUSK`)
	rewardsRe     = regexp.MustCompile(`Accumulated rewards is:\s*([\d.]+)\s*DUSK`)

	shieldedRe = regexp.MustCompile(`Shielded account\s*-\s*(\S+)`)
	publicRe   = regexp.MustCompile(`Public account\s*-\s*(\S+)`)
)

// ParseStakeInfo extracts the stake triple from stake-info output. The
// parse is all-or-nothing: if any of the three fields is absent, the
// result is ErrUnparseable and no partial values are returned.
func ParseStakeInfo(output string) (StakeInfo, error) {
	var stake, reclaimable, rewards *decimal.Decimal

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "Eligible stake:"):
			if v, ok := matchAmount(eligibleRe, line); ok {
				stake = &v
			}
		case strings.Contains(line, "Reclaimable slashed stake:"):
			if v, ok := matchAmount(reclaimableRe, line); ok {
				reclaimable = &v
			}
		case strings.Contains(line, "Accumulated rewards is:"):
			if v, ok := matchAmount(rewardsRe, line); ok {
				rewards = &v
			}
		}
	}

	if stake == nil || reclaimable == nil || rewards == nil {
		return StakeInfo{}, fmt.Errorf("%w: incomplete stake-info", ErrUnparseable)
	}

	return StakeInfo{
		StakeAmount:             *stake,
		ReclaimableSlashedStake: *reclaimable,
		RewardsAmount:           *rewards,
	}, nil
}

// ParseProfiles extracts public and shielded addresses from profiles output.
func ParseProfiles(output string) Addresses {
	var addrs Addresses
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if m := shieldedRe.FindStringSubmatch(line); m != nil {
			addrs.Shielded = append(addrs.Shielded, m[1])
		} else if m := publicRe.FindStringSubmatch(line); m != nil {
			addrs.Public = append(addrs.Public, m[1])
		}
	}
	return addrs
}

// ParseSpendable extracts the amount from a `Total: <amount>` balance line.
func ParseSpendable(output string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(output, "Total: ", ""))
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: balance %q", ErrUnparseable, output)
	}
	return v, nil
}

func matchAmount(re *regexp.Regexp, line string) (decimal.Decimal, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}
