package extcodec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encoding is used by test fixtures and by the in-memory oracle to seed the
// store with well-formed blobs. Production blobs arrive from the external
// providers already encoded.

func encodeEnvelope(schema string, version uint8, payload interface{}) ([]byte, error) {
	raw, err := cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", schema, err)
	}
	return cbor.Marshal(Envelope{Schema: schema, Version: version, Payload: raw})
}

// EncodeTokenOwnerRecord encodes a token-owner record as a v2 blob
func EncodeTokenOwnerRecord(rec TokenOwnerRecord) ([]byte, error) {
	return encodeEnvelope(SchemaTokenOwnerRecord, 2, tokenOwnerRecordV2{
		Realm:           rec.Realm,
		Mint:            rec.Mint,
		Owner:           rec.Owner,
		DepositedAmount: rec.DepositedAmount,
	})
}

// EncodeTokenOwnerRecordV1 encodes a token-owner record in the legacy layout
func EncodeTokenOwnerRecordV1(rec TokenOwnerRecord) ([]byte, error) {
	return encodeEnvelope(SchemaTokenOwnerRecord, 1, tokenOwnerRecordV1{
		Realm:           rec.Realm,
		Mint:            rec.Mint,
		Owner:           rec.Owner,
		DepositedAmount: rec.DepositedAmount,
	})
}

// EncodeMemberEquity encodes a member-equity blob
func EncodeMemberEquity(rec MemberEquity) ([]byte, error) {
	return encodeEnvelope(SchemaMemberEquity, 1, memberEquityV1{
		Squad:  rec.Squad,
		Member: rec.Member,
		Mint:   rec.Mint,
		Amount: rec.Amount,
	})
}

// EncodeSquad encodes a squad configuration blob
func EncodeSquad(rec Squad) ([]byte, error) {
	return encodeEnvelope(SchemaSquad, 1, squadV1{
		Name:         rec.Name,
		Mint:         rec.Mint,
		VoteSupport:  rec.VoteSupport,
		VoteQuorum:   rec.VoteQuorum,
		MemberCount:  rec.MemberCount,
		EquitySupply: rec.EquitySupply,
	})
}

// EncodeSquadProposal encodes a squad proposal blob
func EncodeSquadProposal(rec SquadProposal) ([]byte, error) {
	return encodeEnvelope(SchemaSquadProposal, 1, squadProposalV1{
		Squad:            rec.Squad,
		Title:            rec.Title,
		Description:      rec.Description,
		VoteLabels:       rec.VoteLabels,
		Votes:            rec.Votes,
		Participants:     rec.Participants,
		Executed:         rec.Executed,
		MembersAtExecute: rec.MembersAtExecute,
		SupplyAtExecute:  rec.SupplyAtExecute,
	})
}
