// Package proposal parses governance/squad proposal text into structured
// verdicts. Parsing is pure and deterministic: the same proposal always
// yields the same verdict or the same error, and nothing is mutated on
// failure.
package proposal

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// Tag is the literal every actionable proposal title must start with
const Tag = "[PROPOSAL]"

// Expected vote option labels, in order
const (
	OptionApprove = "Approve"
	OptionDeny    = "Deny"
)

var (
	// ErrFailedToParse is returned when the title or body does not match
	// the expected grammar.
	ErrFailedToParse = errors.New("failed to parse proposal")

	// ErrInvalidProposal is returned when the proposal is well-formed but
	// its vote structure or tally does not authorize execution.
	ErrInvalidProposal = errors.New("invalid proposal")
)

// Kind discriminates the action a verdict authorizes
type Kind string

const (
	KindGrantAccess   Kind = "GRANT_ACCESS"
	KindWithdrawFunds Kind = "WITHDRAW_FUNDS"
)

// GrantAccess grants a role over a manager to a principal
type GrantAccess struct {
	Member entity.Principal
	Role   entity.Role
}

// WithdrawFunds moves an amount from a manager's pool to a treasury account
type WithdrawFunds struct {
	Amount   uint64
	Manager  string
	Treasury string
}

// Verdict is the validated outcome of a passed proposal. Exactly one of the
// action fields is set, matching Kind.
type Verdict struct {
	Kind          Kind
	GrantAccess   *GrantAccess
	WithdrawFunds *WithdrawFunds
}

// Tally carries the vote outcome and the denominators used for quorum and
// support. For finalized proposals callers must populate the denominators
// from the proposal's frozen snapshot, otherwise from live squad/mint state.
type Tally struct {
	Options        []string
	Votes          []uint64
	Participants   uint32
	EligibleVoters uint32
	EligibleSupply uint64
}

// Thresholds are the configured minimum quorum and support percentages
type Thresholds struct {
	Quorum  uint8
	Support uint8
}

// ParseAndVerify validates the proposal title, vote structure, tally and body
// grammar, returning the structured verdict only if every check passes.
func ParseAndVerify(title, description string, tally Tally, th Thresholds) (*Verdict, error) {
	if !strings.HasPrefix(title, Tag) {
		return nil, fmt.Errorf("%w: title missing %q tag", ErrFailedToParse, Tag)
	}

	if err := verifyTally(tally, th); err != nil {
		return nil, err
	}

	return parseBody(description)
}

func verifyTally(tally Tally, th Thresholds) error {
	if len(tally.Options) != 2 || len(tally.Votes) != 2 {
		return fmt.Errorf("%w: expected exactly two vote options", ErrInvalidProposal)
	}
	if strings.TrimSpace(tally.Options[0]) != OptionApprove ||
		strings.TrimSpace(tally.Options[1]) != OptionDeny {
		return fmt.Errorf("%w: vote options must be %q, %q", ErrInvalidProposal, OptionApprove, OptionDeny)
	}

	approve, deny := tally.Votes[0], tally.Votes[1]
	if approve < deny {
		return fmt.Errorf("%w: proposal did not pass", ErrInvalidProposal)
	}

	if tally.EligibleVoters == 0 || tally.EligibleSupply == 0 {
		return fmt.Errorf("%w: zero eligible voters or supply", ErrInvalidProposal)
	}
	quorumPct := percentOf(uint64(tally.Participants), uint64(tally.EligibleVoters))
	if quorumPct < uint64(th.Quorum) {
		return fmt.Errorf("%w: quorum %d%% below threshold %d%%", ErrInvalidProposal, quorumPct, th.Quorum)
	}
	supportPct := percentOf(approve, tally.EligibleSupply)
	if supportPct < uint64(th.Support) {
		return fmt.Errorf("%w: support %d%% below threshold %d%%", ErrInvalidProposal, supportPct, th.Support)
	}
	return nil
}

// percentOf computes num*100/den in 128-bit space so vote counts near the
// uint64 ceiling cannot wrap. Results past 100 are clamped; thresholds never
// exceed 100.
func percentOf(num, den uint64) uint64 {
	hi, lo := bits.Mul64(num, 100)
	if hi >= den {
		return 100
	}
	pct, _ := bits.Div64(hi, lo, den)
	if pct > 100 {
		return 100
	}
	return pct
}

// parseBody applies the line-oriented "key: value" grammar. The action kind
// is selected by the first key; keys must appear in the fixed order with no
// extra lines.
func parseBody(description string) (*Verdict, error) {
	lines := strings.Split(strings.TrimRight(description, "\n"), "\n")
	fields, err := parseLines(lines)
	if err != nil {
		return nil, err
	}

	switch fields[0].key {
	case "member":
		return parseGrantAccess(fields)
	case "lamports":
		return parseWithdrawFunds(fields)
	default:
		return nil, fmt.Errorf("%w: unknown action key %q", ErrFailedToParse, fields[0].key)
	}
}

type bodyField struct {
	key   string
	value string
}

func parseLines(lines []string) ([]bodyField, error) {
	if len(lines) == 0 || (len(lines) == 1 && strings.TrimSpace(lines[0]) == "") {
		return nil, fmt.Errorf("%w: empty body", ErrFailedToParse)
	}
	fields := make([]bodyField, 0, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: line %q is not key: value", ErrFailedToParse, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return nil, fmt.Errorf("%w: line %q has empty key or value", ErrFailedToParse, line)
		}
		fields = append(fields, bodyField{key: key, value: value})
	}
	return fields, nil
}

func parseGrantAccess(fields []bodyField) (*Verdict, error) {
	if len(fields) != 2 || fields[0].key != "member" || fields[1].key != "role" {
		return nil, fmt.Errorf("%w: grant-access body must be member, role", ErrFailedToParse)
	}

	var role entity.Role
	switch strings.ToLower(fields[1].value) {
	case "admin":
		role = entity.RoleAdmin
	case "reviewer":
		role = entity.RoleReviewer
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrFailedToParse, fields[1].value)
	}

	return &Verdict{
		Kind: KindGrantAccess,
		GrantAccess: &GrantAccess{
			Member: entity.Principal(fields[0].value),
			Role:   role,
		},
	}, nil
}

func parseWithdrawFunds(fields []bodyField) (*Verdict, error) {
	if len(fields) != 3 || fields[0].key != "lamports" ||
		fields[1].key != "manager" || fields[2].key != "treasury" {
		return nil, fmt.Errorf("%w: withdrawal body must be lamports, manager, treasury", ErrFailedToParse)
	}

	amount, err := strconv.ParseUint(fields[0].value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad lamports value %q", ErrFailedToParse, fields[0].value)
	}

	return &Verdict{
		Kind: KindWithdrawFunds,
		WithdrawFunds: &WithdrawFunds{
			Amount:   amount,
			Manager:  fields[1].value,
			Treasury: fields[2].value,
		},
	}, nil
}
