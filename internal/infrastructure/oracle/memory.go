// Package oracle provides an in-memory implementation of the external
// authority oracles. The real deployments read these records from the
// governance and squad providers; the in-memory store carries the same
// schema-versioned blobs and serves local development and tests.
package oracle

import (
	"context"
	"sync"

	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// Memory is an in-memory blob store implementing port.GovernanceOracle and
// port.SquadOracle. Missing records are reported as (nil, nil).
type Memory struct {
	mu             sync.RWMutex
	tokenOwnerRecs map[string][]byte
	squads         map[string][]byte
	memberEquities map[string][]byte
	squadProposals map[string][]byte
}

// NewMemory creates an empty oracle store
func NewMemory() *Memory {
	return &Memory{
		tokenOwnerRecs: make(map[string][]byte),
		squads:         make(map[string][]byte),
		memberEquities: make(map[string][]byte),
		squadProposals: make(map[string][]byte),
	}
}

func tokenOwnerKey(realm, mint string, owner entity.Principal) string {
	return realm + "/" + mint + "/" + owner.String()
}

func equityKey(squad string, member entity.Principal) string {
	return squad + "/" + member.String()
}

// PutTokenOwnerRecord stores a governance token-owner record blob
func (m *Memory) PutTokenOwnerRecord(realm, mint string, owner entity.Principal, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenOwnerRecs[tokenOwnerKey(realm, mint, owner)] = blob
}

// PutSquad stores a squad configuration blob
func (m *Memory) PutSquad(squad string, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.squads[squad] = blob
}

// PutMemberEquity stores a member-equity blob
func (m *Memory) PutMemberEquity(squad string, member entity.Principal, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberEquities[equityKey(squad, member)] = blob
}

// PutProposal stores a squad proposal blob
func (m *Memory) PutProposal(proposalID string, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.squadProposals[proposalID] = blob
}

// TokenOwnerRecord implements port.GovernanceOracle
func (m *Memory) TokenOwnerRecord(_ context.Context, realm, mint string, owner entity.Principal) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokenOwnerRecs[tokenOwnerKey(realm, mint, owner)], nil
}

// Squad implements port.SquadOracle
func (m *Memory) Squad(_ context.Context, squad string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.squads[squad], nil
}

// MemberEquity implements port.SquadOracle
func (m *Memory) MemberEquity(_ context.Context, squad string, member entity.Principal) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memberEquities[equityKey(squad, member)], nil
}

// Proposal implements port.SquadOracle
func (m *Memory) Proposal(_ context.Context, proposalID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.squadProposals[proposalID], nil
}
