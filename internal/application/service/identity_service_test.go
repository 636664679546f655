package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expensio/expense-ledger/internal/domain/entity"
	"github.com/expensio/expense-ledger/internal/proposal"
)

func TestIdentityRegisterAndGet(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	user, err := f.identity.Register(ctx, alice, "alice_w", "Alice Walker")
	require.NoError(t, err)
	assert.Equal(t, "alice_w", user.Username)
	assert.Equal(t, "Alice Walker", user.RealName)
	assert.NotEmpty(t, user.Address)

	got, err := f.identity.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)
}

func TestIdentityRegister_OneTime(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	_, err := f.identity.Register(ctx, alice, "alice_w", "Alice Walker")
	require.NoError(t, err)

	_, err = f.identity.Register(ctx, alice, "alice_2", "Alice Again")
	require.ErrorIs(t, err, entity.ErrAlreadyExists)
}

func TestIdentityRegister_Bounds(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'u'
		}
		return string(b)
	}

	_, err := f.identity.Register(ctx, alice, long(entity.MaxUsernameLen+1), "Alice")
	require.ErrorIs(t, err, entity.ErrDataTooLarge)

	_, err = f.identity.Register(ctx, alice, "alice_w", long(entity.MaxRealNameLen+1))
	require.ErrorIs(t, err, entity.ErrDataTooLarge)
}

func TestIdentityGet_Unknown(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})

	_, err := f.identity.Get(context.Background(), bob)
	require.ErrorIs(t, err, entity.ErrUninitialized)
}
