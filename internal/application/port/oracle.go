package port

import (
	"context"

	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// The oracles are read-only views over records owned by external governance
// and squad programs. They return raw schema-versioned blobs; decoding lives
// in internal/access/extcodec and fails closed on unknown layouts. A nil blob
// with nil error means the record does not exist.

// GovernanceOracle reads DAO-governance token records
type GovernanceOracle interface {
	TokenOwnerRecord(ctx context.Context, realm, mint string, owner entity.Principal) ([]byte, error)
}

// SquadOracle reads multisig squad configuration, membership and proposals
type SquadOracle interface {
	Squad(ctx context.Context, squad string) ([]byte, error)
	MemberEquity(ctx context.Context, squad string, member entity.Principal) ([]byte, error)
	Proposal(ctx context.Context, proposalID string) ([]byte, error)
}
