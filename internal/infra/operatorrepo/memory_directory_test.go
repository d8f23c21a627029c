package operatorrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/surgecast/internal/domain/auth"
)

func TestMemoryDirectoryLookup(t *testing.T) {
	dir, err := NewMemoryDirectory([]auth.Operator{
		{Username: " Dispatch ", PasswordHash: "hash", Role: auth.RoleAdmin},
		{Username: "nurse", PasswordHash: "hash", Role: auth.RoleStaff},
	})
	require.NoError(t, err)
	require.Equal(t, 2, dir.Len())

	op, found, err := dir.GetByUsername(context.Background(), "DISPATCH")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "dispatch", op.Username)
	require.Equal(t, auth.RoleAdmin, op.Role)

	_, found, err = dir.GetByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryDirectoryRejectsBadEntries(t *testing.T) {
	_, err := NewMemoryDirectory([]auth.Operator{{Username: "a", Role: "root"}})
	require.Error(t, err)

	_, err = NewMemoryDirectory([]auth.Operator{{Username: "", Role: auth.RoleStaff}})
	require.Error(t, err)

	_, err = NewMemoryDirectory([]auth.Operator{
		{Username: "a", Role: auth.RoleStaff},
		{Username: "A", Role: auth.RoleAdmin},
	})
	require.Error(t, err)
}
