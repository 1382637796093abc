package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryTenantsOf(t *testing.T) {
	tests := []struct {
		name        string
		memberships []Membership
		callerID    string
		want        []string
	}{
		{
			name:     "unknown caller returns empty set",
			callerID: "nobody",
			want:     []string{},
		},
		{
			name: "single membership",
			memberships: []Membership{
				{UserID: "alice", TenantID: "t1"},
			},
			callerID: "alice",
			want:     []string{"t1"},
		},
		{
			name: "caller in several tenants",
			memberships: []Membership{
				{UserID: "alice", TenantID: "t1"},
				{UserID: "alice", TenantID: "t2"},
				{UserID: "bob", TenantID: "t3"},
			},
			callerID: "alice",
			want:     []string{"t1", "t2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirectory()
			require.NoError(t, d.Load(tt.memberships, nil))

			got, err := d.TenantsOf(context.Background(), tt.callerID)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestDirectoryOwnedBy(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.Load(nil, []KnowledgeBase{
		{ID: "kb-a", TenantID: "t1", Mode: ModeVector},
		{ID: "kb-gone", TenantID: "t1", Mode: ModeVector, Deleted: true},
	}))

	ctx := context.Background()

	owned, err := d.OwnedBy(ctx, "t1", "kb-a")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = d.OwnedBy(ctx, "t2", "kb-a")
	require.NoError(t, err)
	assert.False(t, owned, "ownership is single-valued")

	owned, err = d.OwnedBy(ctx, "t1", "kb-gone")
	require.NoError(t, err)
	assert.False(t, owned, "soft-deleted knowledge bases are not owned")

	owned, err = d.OwnedBy(ctx, "t1", "kb-")
	require.NoError(t, err)
	assert.False(t, owned, "exact id equality only")
}

func TestDirectoryFind(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.AddKnowledgeBase(KnowledgeBase{
		ID: "kb-a", TenantID: "t1", EmbeddingModel: "bge-small", Mode: ModeKnowledgeGraph,
	}))
	require.NoError(t, d.AddKnowledgeBase(KnowledgeBase{
		ID: "kb-b", TenantID: "t1", Deleted: true,
	}))

	ctx := context.Background()

	kb, err := d.Find(ctx, "kb-a")
	require.NoError(t, err)
	assert.Equal(t, "t1", kb.TenantID)
	assert.Equal(t, ModeKnowledgeGraph, kb.Mode)

	_, err = d.Find(ctx, "missing")
	assert.True(t, errors.Is(err, ErrKnowledgeBaseNotFound))

	_, err = d.Find(ctx, "kb-b")
	assert.True(t, errors.Is(err, ErrKnowledgeBaseNotFound), "soft-deleted is not found")
}

func TestKnowledgeBaseValidate(t *testing.T) {
	kb := KnowledgeBase{ID: "kb-a", TenantID: "t1"}
	require.NoError(t, kb.Validate())
	assert.Equal(t, ModeVector, kb.Mode, "empty mode defaults to vector")

	kb = KnowledgeBase{ID: "kb-a", TenantID: "t1", Mode: "graphql"}
	err := kb.Validate()
	assert.True(t, errors.Is(err, ErrInvalidMode))

	kb = KnowledgeBase{TenantID: "t1"}
	assert.Error(t, kb.Validate())
}

func TestDirectoryLoadRejectsDuplicates(t *testing.T) {
	d := NewDirectory()
	err := d.Load(nil, []KnowledgeBase{
		{ID: "kb-a", TenantID: "t1"},
		{ID: "kb-a", TenantID: "t2"},
	})
	assert.True(t, errors.Is(err, ErrDuplicateID))
}
