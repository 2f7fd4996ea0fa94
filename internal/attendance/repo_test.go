package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(owner string, at time.Time) Record {
	return Record{
		OwnerID:          owner,
		OwnerDisplayName: "name-" + owner,
		Subject:          "Math",
		Status:           StatusPresent,
		CreatedAt:        at,
	}
}

func TestRepository_CreateAssignsIncreasingIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clock := newStepClock()

	var last int64
	for i := 0; i < 5; i++ {
		rec, err := repo.Create(ctx, sampleRecord("u1", clock.Now()))
		require.NoError(t, err)
		assert.Greater(t, rec.ID, last)
		last = rec.ID
	}
}

func TestRepository_RoundTripsNullableFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

	bare, err := repo.Create(ctx, sampleRecord("u1", at))
	require.NoError(t, err)

	full := sampleRecord("u1", at.Add(time.Hour))
	full.Status = StatusAbsent
	full.Reason = strPtr("sick")
	full.Proof = &Proof{URL: "https://cdn/note.pdf", Name: "note.pdf"}
	full, err = repo.Create(ctx, full)
	require.NoError(t, err)

	got, err := repo.FindOwned(ctx, bare.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Reason)
	assert.Nil(t, got.Proof)
	assert.True(t, at.Equal(got.CreatedAt))
	assert.Equal(t, "name-u1", got.OwnerDisplayName)

	got, err = repo.FindOwned(ctx, full.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusAbsent, got.Status)
	require.NotNil(t, got.Reason)
	assert.Equal(t, "sick", *got.Reason)
	assert.Equal(t, &Proof{URL: "https://cdn/note.pdf", Name: "note.pdf"}, got.Proof)
}

func TestRepository_FindOwnedHidesOtherOwners(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, sampleRecord("alice", time.Now().UTC()))
	require.NoError(t, err)

	got, err := repo.FindOwned(ctx, rec.ID, "bob")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.FindOwned(ctx, rec.ID+100, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.OwnerID)
}

func TestRepository_UpdateProofRequiresOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, sampleRecord("alice", time.Now().UTC()))
	require.NoError(t, err)

	ok, err := repo.UpdateProof(ctx, rec.ID, "bob", Proof{URL: "u", Name: "f.pdf"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindOwned(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Proof, "foreign update must not touch the record")

	ok, err = repo.UpdateProof(ctx, rec.ID, "alice", Proof{URL: "u", Name: "f.pdf"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = repo.FindOwned(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, &Proof{URL: "u", Name: "f.pdf"}, got.Proof)
	assert.Equal(t, "Math", got.Subject)
	assert.Equal(t, StatusPresent, got.Status)
}

func TestRepository_ListRecentByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clock := newStepClock()

	// interleave owners so filtering is exercised
	for i := 0; i < 6; i++ {
		for _, owner := range []string{"alice", "bob"} {
			rec := sampleRecord(owner, clock.Now())
			rec.Subject = fmt.Sprintf("%s-%d", owner, i)
			_, err := repo.Create(ctx, rec)
			require.NoError(t, err)
		}
	}

	got, err := repo.ListRecentByOwner(ctx, "alice", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, rec := range got {
		assert.Equal(t, "alice", rec.OwnerID)
		assert.Equal(t, fmt.Sprintf("alice-%d", 5-i), rec.Subject)
	}
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].CreatedAt.After(got[i].CreatedAt))
	}

	none, err := repo.ListRecentByOwner(ctx, "carol", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_ListBreaksTiesByInsertion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 3; i++ {
		rec, err := repo.Create(ctx, sampleRecord("alice", at))
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	got, err := repo.ListRecentByOwner(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestRepository_ProofArchives(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, sampleRecord("alice", time.Now().UTC()))
	require.NoError(t, err)

	saved, err := repo.SaveProofArchive(ctx, ProofArchive{
		RecordID:   rec.ID,
		SourceURL:  "https://cdn.discordapp.com/a.png",
		ArchiveURL: "https://res.cloudinary.com/demo/a.png",
		PublicID:   "attendance/proofs/a",
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.ArchivedAt.IsZero())

	list, err := repo.ProofArchives(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "attendance/proofs/a", list[0].PublicID)
}
