// Package extcodec decodes externally-owned authority records (governance
// token-owner records, squad membership and proposal records) from their
// schema-versioned wire blobs. The records are produced and versioned by
// foreign programs, so decoding negotiates the schema from an envelope tag
// and fails closed on anything it does not recognize rather than guessing.
package extcodec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrFailedToParse is returned when a blob is not a well-formed
	// envelope or its payload does not match the declared schema.
	ErrFailedToParse = errors.New("failed to parse external record")

	// ErrUnknownSchema is returned when the envelope declares a schema or
	// version this build does not understand.
	ErrUnknownSchema = errors.New("unknown external record schema")
)

// Schema names carried in the envelope
const (
	SchemaTokenOwnerRecord = "token_owner_record"
	SchemaMemberEquity     = "member_equity"
	SchemaSquad            = "squad"
	SchemaSquadProposal    = "squad_proposal"
)

// Envelope wraps every external record blob with its schema identity
type Envelope struct {
	Schema  string          `cbor:"schema"`
	Version uint8           `cbor:"version"`
	Payload cbor.RawMessage `cbor:"payload"`
}

// decMode rejects unknown payload fields so a layout drift surfaces as a
// parse failure instead of silently-zeroed fields.
var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("extcodec: CBOR decoder initialization failed: " + err.Error())
	}
}

// TokenOwnerRecord is the normalized view of a DAO-governance token deposit
// record for (realm, mint, owner).
type TokenOwnerRecord struct {
	Realm           string
	Mint            string
	Owner           string
	DepositedAmount uint64
}

type tokenOwnerRecordV1 struct {
	Realm           string `cbor:"realm"`
	Mint            string `cbor:"mint"`
	Owner           string `cbor:"owner"`
	DepositedAmount uint64 `cbor:"deposited_amount"`
}

type tokenOwnerRecordV2 struct {
	Realm           string `cbor:"realm"`
	Mint            string `cbor:"mint"`
	Owner           string `cbor:"owner"`
	DepositedAmount uint64 `cbor:"deposited_amount"`
	Delegate        string `cbor:"delegate"`
	Reserved        []byte `cbor:"reserved"`
}

// MemberEquity is the view of a squad member's equity token balance
type MemberEquity struct {
	Squad  string
	Member string
	Mint   string
	Amount uint64
}

type memberEquityV1 struct {
	Squad  string `cbor:"squad"`
	Member string `cbor:"member"`
	Mint   string `cbor:"mint"`
	Amount uint64 `cbor:"amount"`
}

// Squad is the view of a multisig squad's configuration and live membership
type Squad struct {
	Name         string
	Mint         string
	VoteSupport  uint8
	VoteQuorum   uint8
	MemberCount  uint32
	EquitySupply uint64
}

type squadV1 struct {
	Name         string `cbor:"name"`
	Mint         string `cbor:"mint"`
	VoteSupport  uint8  `cbor:"vote_support"`
	VoteQuorum   uint8  `cbor:"vote_quorum"`
	MemberCount  uint32 `cbor:"member_count"`
	EquitySupply uint64 `cbor:"equity_supply"`
}

// SquadProposal is the view of a squad voting proposal and its tally
type SquadProposal struct {
	Squad            string
	Title            string
	Description      string
	VoteLabels       []string
	Votes            []uint64
	Participants     uint32
	Executed         bool
	MembersAtExecute uint32
	SupplyAtExecute  uint64
}

type squadProposalV1 struct {
	Squad            string   `cbor:"squad"`
	Title            string   `cbor:"title"`
	Description      string   `cbor:"description"`
	VoteLabels       []string `cbor:"vote_labels"`
	Votes            []uint64 `cbor:"votes"`
	Participants     uint32   `cbor:"participants"`
	Executed         bool     `cbor:"executed"`
	MembersAtExecute uint32   `cbor:"members_at_execute"`
	SupplyAtExecute  uint64   `cbor:"supply_at_execute"`
}

func decodeEnvelope(raw []byte, wantSchema string) (*Envelope, error) {
	var env Envelope
	if err := decMode.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrFailedToParse, err)
	}
	if env.Schema != wantSchema {
		return nil, fmt.Errorf("%w: got schema %q, want %q", ErrUnknownSchema, env.Schema, wantSchema)
	}
	return &env, nil
}

// DecodeTokenOwnerRecord parses a governance token-owner record blob,
// accepting the v1 and v2 layouts.
func DecodeTokenOwnerRecord(raw []byte) (*TokenOwnerRecord, error) {
	env, err := decodeEnvelope(raw, SchemaTokenOwnerRecord)
	if err != nil {
		return nil, err
	}
	switch env.Version {
	case 1:
		var rec tokenOwnerRecordV1
		if err := decMode.Unmarshal(env.Payload, &rec); err != nil {
			return nil, fmt.Errorf("%w: token owner record v1: %v", ErrFailedToParse, err)
		}
		return &TokenOwnerRecord{
			Realm:           rec.Realm,
			Mint:            rec.Mint,
			Owner:           rec.Owner,
			DepositedAmount: rec.DepositedAmount,
		}, nil
	case 2:
		var rec tokenOwnerRecordV2
		if err := decMode.Unmarshal(env.Payload, &rec); err != nil {
			return nil, fmt.Errorf("%w: token owner record v2: %v", ErrFailedToParse, err)
		}
		return &TokenOwnerRecord{
			Realm:           rec.Realm,
			Mint:            rec.Mint,
			Owner:           rec.Owner,
			DepositedAmount: rec.DepositedAmount,
		}, nil
	default:
		return nil, fmt.Errorf("%w: token owner record version %d", ErrUnknownSchema, env.Version)
	}
}

// DecodeMemberEquity parses a squad member-equity blob
func DecodeMemberEquity(raw []byte) (*MemberEquity, error) {
	env, err := decodeEnvelope(raw, SchemaMemberEquity)
	if err != nil {
		return nil, err
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("%w: member equity version %d", ErrUnknownSchema, env.Version)
	}
	var rec memberEquityV1
	if err := decMode.Unmarshal(env.Payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: member equity: %v", ErrFailedToParse, err)
	}
	return &MemberEquity{Squad: rec.Squad, Member: rec.Member, Mint: rec.Mint, Amount: rec.Amount}, nil
}

// DecodeSquad parses a squad configuration blob
func DecodeSquad(raw []byte) (*Squad, error) {
	env, err := decodeEnvelope(raw, SchemaSquad)
	if err != nil {
		return nil, err
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("%w: squad version %d", ErrUnknownSchema, env.Version)
	}
	var rec squadV1
	if err := decMode.Unmarshal(env.Payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: squad: %v", ErrFailedToParse, err)
	}
	return &Squad{
		Name:         rec.Name,
		Mint:         rec.Mint,
		VoteSupport:  rec.VoteSupport,
		VoteQuorum:   rec.VoteQuorum,
		MemberCount:  rec.MemberCount,
		EquitySupply: rec.EquitySupply,
	}, nil
}

// DecodeSquadProposal parses a squad proposal blob
func DecodeSquadProposal(raw []byte) (*SquadProposal, error) {
	env, err := decodeEnvelope(raw, SchemaSquadProposal)
	if err != nil {
		return nil, err
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("%w: squad proposal version %d", ErrUnknownSchema, env.Version)
	}
	var rec squadProposalV1
	if err := decMode.Unmarshal(env.Payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: squad proposal: %v", ErrFailedToParse, err)
	}
	return &SquadProposal{
		Squad:            rec.Squad,
		Title:            rec.Title,
		Description:      rec.Description,
		VoteLabels:       rec.VoteLabels,
		Votes:            rec.Votes,
		Participants:     rec.Participants,
		Executed:         rec.Executed,
		MembersAtExecute: rec.MembersAtExecute,
		SupplyAtExecute:  rec.SupplyAtExecute,
	}, nil
}
