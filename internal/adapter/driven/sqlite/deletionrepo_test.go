package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchpulse/branchpulse/internal/domain/model"
)

func testDeletion(branch string, succeeded bool, deletedAt time.Time) model.DeletionEntry {
	entry := model.DeletionEntry{
		Owner:     "org",
		Repo:      "repo",
		Branch:    branch,
		Succeeded: succeeded,
		DeletedAt: deletedAt,
	}
	if !succeeded {
		entry.Detail = "422 reference does not exist"
	}
	return entry
}

func TestDeletionRepo_RecordAndListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeletionRepo(db)
	ctx := context.Background()

	deletedAt := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, testDeletion("feature/old", true, deletedAt)))
	require.NoError(t, repo.Record(ctx, testDeletion("feature/broken", false, deletedAt.Add(time.Minute))))

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, "feature/broken", entries[0].Branch)
	assert.False(t, entries[0].Succeeded)
	assert.Contains(t, entries[0].Detail, "reference does not exist")

	assert.Equal(t, "feature/old", entries[1].Branch)
	assert.True(t, entries[1].Succeeded)
	assert.Empty(t, entries[1].Detail)
	assert.NotZero(t, entries[1].ID)
	assert.True(t, entries[1].DeletedAt.Equal(deletedAt))
}

func TestDeletionRepo_ListRecentRespectsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeletionRepo(db)
	ctx := context.Background()

	deletedAt := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Record(ctx, testDeletion("feature/old", true, deletedAt.Add(time.Duration(i)*time.Second))))
	}

	entries, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDeletionRepo_ListRecentEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeletionRepo(db)

	entries, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
