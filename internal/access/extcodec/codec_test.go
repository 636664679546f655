package extcodec

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokenOwnerRecord_V2RoundTrip(t *testing.T) {
	blob, err := EncodeTokenOwnerRecord(TokenOwnerRecord{
		Realm:           "realm-1",
		Mint:            "mint-1",
		Owner:           "alice",
		DepositedAmount: 42,
	})
	require.NoError(t, err)

	rec, err := DecodeTokenOwnerRecord(blob)
	require.NoError(t, err)
	assert.Equal(t, "realm-1", rec.Realm)
	assert.Equal(t, "alice", rec.Owner)
	assert.Equal(t, uint64(42), rec.DepositedAmount)
}

func TestDecodeTokenOwnerRecord_V1Layout(t *testing.T) {
	blob, err := EncodeTokenOwnerRecordV1(TokenOwnerRecord{
		Realm:           "realm-1",
		Mint:            "mint-1",
		Owner:           "bob",
		DepositedAmount: 7,
	})
	require.NoError(t, err)

	rec, err := DecodeTokenOwnerRecord(blob)
	require.NoError(t, err)
	assert.Equal(t, "bob", rec.Owner)
	assert.Equal(t, uint64(7), rec.DepositedAmount)
}

func TestDecodeTokenOwnerRecord_UnknownVersion(t *testing.T) {
	payload, err := cbor.Marshal(map[string]interface{}{"owner": "x"})
	require.NoError(t, err)
	blob, err := cbor.Marshal(Envelope{Schema: SchemaTokenOwnerRecord, Version: 9, Payload: payload})
	require.NoError(t, err)

	_, err = DecodeTokenOwnerRecord(blob)
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestDecodeTokenOwnerRecord_WrongSchema(t *testing.T) {
	blob, err := EncodeMemberEquity(MemberEquity{Squad: "s", Member: "m", Mint: "t", Amount: 1})
	require.NoError(t, err)

	_, err = DecodeTokenOwnerRecord(blob)
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestDecodeTokenOwnerRecord_UnrecognizedField(t *testing.T) {
	// A field this build does not know means the layout drifted; decoding
	// must fail closed instead of dropping it.
	payload, err := cbor.Marshal(map[string]interface{}{
		"realm":            "r",
		"mint":             "m",
		"owner":            "o",
		"deposited_amount": 1,
		"surprise":         true,
	})
	require.NoError(t, err)
	blob, err := cbor.Marshal(Envelope{Schema: SchemaTokenOwnerRecord, Version: 1, Payload: payload})
	require.NoError(t, err)

	_, err = DecodeTokenOwnerRecord(blob)
	assert.ErrorIs(t, err, ErrFailedToParse)
}

func TestDecode_GarbageBlob(t *testing.T) {
	_, err := DecodeSquad([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.ErrorIs(t, err, ErrFailedToParse)
}

func TestDecodeSquadProposal_RoundTrip(t *testing.T) {
	blob, err := EncodeSquadProposal(SquadProposal{
		Squad:            "squad-1",
		Title:            "[PROPOSAL] Grant Permissions",
		Description:      "member: carol\nrole: reviewer",
		VoteLabels:       []string{"Approve", "Deny"},
		Votes:            []uint64{3, 1},
		Participants:     4,
		Executed:         true,
		MembersAtExecute: 5,
		SupplyAtExecute:  100,
	})
	require.NoError(t, err)

	rec, err := DecodeSquadProposal(blob)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, rec.Votes)
	assert.True(t, rec.Executed)
	assert.Equal(t, uint32(5), rec.MembersAtExecute)
}

func TestDecodeSquad_RoundTrip(t *testing.T) {
	blob, err := EncodeSquad(Squad{
		Name:         "core",
		Mint:         "mint-1",
		VoteSupport:  60,
		VoteQuorum:   50,
		MemberCount:  8,
		EquitySupply: 1000,
	})
	require.NoError(t, err)

	rec, err := DecodeSquad(blob)
	require.NoError(t, err)
	assert.Equal(t, uint8(60), rec.VoteSupport)
	assert.Equal(t, uint32(8), rec.MemberCount)
}
