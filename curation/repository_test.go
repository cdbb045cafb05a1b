// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T, clock clockwork.Clock) HotspotRepository {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewHotspotRepository(db, clock)
	require.NoError(t, repo.CreateSchema())

	return repo
}

func sampleSnapshot() *RegionSnapshot {
	noPoint := &Hotspot{ID: "L3", Name: "Heron Rookery", CountryCode: "US", StateCode: "US-OH"}

	first := newHotspot("L1", "North Marsh", 40.0, -80.0)
	first.NumSpeciesAllTime = 143
	first.LatestObsDt = "2025-05-01 07:12"

	return &RegionSnapshot{
		Code:  "US-OH-001",
		Label: "Adams County, Ohio, US",
		Hotspots: []*Hotspot{
			newHotspot("L9", "North Marsh Boardwalk", 40.0001, -80.0001),
			first,
			noPoint,
		},
	}
}

func TestCreateSchema(t *testing.T) {
	repo := setupTestDB(t, nil)

	for _, table := range []string{"regions", "hotspots"} {
		var name string

		err := repo.DB().QueryRow(
			"SELECT table_name FROM information_schema.tables WHERE table_name = ?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s not created", table)
	}

	// Idempotent.
	require.NoError(t, repo.CreateSchema())
}

func TestSaveAndGetRegion(t *testing.T) {
	repo := setupTestDB(t, nil)
	snapshot := sampleSnapshot()

	require.NoError(t, repo.SaveRegion(snapshot))

	got, err := repo.GetRegion("US-OH-001")
	require.NoError(t, err)

	if diff := cmp.Diff(snapshot, got); diff != "" {
		t.Errorf("GetRegion() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRegionStoresCells(t *testing.T) {
	repo := setupTestDB(t, nil)
	require.NoError(t, repo.SaveRegion(sampleSnapshot()))

	var withCell, withoutCell int

	err := repo.DB().QueryRow(`
		SELECT COUNT(h3_res8), COUNT(*) - COUNT(h3_res8) FROM hotspots WHERE region = 'US-OH-001'
	`).Scan(&withCell, &withoutCell)
	require.NoError(t, err)
	assert.Equal(t, 2, withCell)
	assert.Equal(t, 1, withoutCell)

	// L1 and L9 are ~14m apart: same resolution 8 cell.
	var distinct int
	require.NoError(t, repo.DB().QueryRow(
		`SELECT COUNT(DISTINCT h3_res8) FROM hotspots WHERE h3_res8 IS NOT NULL`,
	).Scan(&distinct))
	assert.Equal(t, 1, distinct)
}

func TestSaveRegionReplaces(t *testing.T) {
	repo := setupTestDB(t, nil)
	require.NoError(t, repo.SaveRegion(sampleSnapshot()))

	updated := &RegionSnapshot{
		Code:     "US-OH-001",
		Label:    "Adams",
		Hotspots: []*Hotspot{newHotspot("L5", "New Pond", 40.5, -80.5)},
	}
	require.NoError(t, repo.SaveRegion(updated))

	got, err := repo.GetRegion("US-OH-001")
	require.NoError(t, err)
	assert.Equal(t, "Adams", got.Label)
	assert.Equal(t, []string{"L5"}, (&Cluster{Members: got.Hotspots}).IDs())
}

func TestSaveRegionRejectsDuplicates(t *testing.T) {
	repo := setupTestDB(t, nil)
	require.NoError(t, repo.SaveRegion(sampleSnapshot()))

	bad := &RegionSnapshot{
		Code:     "US-OH-001",
		Hotspots: []*Hotspot{newHotspot("L1", "a", 0, 0), newHotspot("L1", "b", 1, 1)},
	}
	require.ErrorIs(t, repo.SaveRegion(bad), ErrDuplicateID)

	// The stored copy survives.
	got, err := repo.GetRegion("US-OH-001")
	require.NoError(t, err)
	assert.Len(t, got.Hotspots, 3)
}

func TestGetRegionNotFound(t *testing.T) {
	repo := setupTestDB(t, nil)

	_, err := repo.GetRegion("UY")
	require.ErrorIs(t, err, ErrRegionNotFound)
	require.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.Region(context.Background(), "UY")
	require.ErrorIs(t, err, ErrRegionNotFound)
}

func TestGetRegionEmpty(t *testing.T) {
	repo := setupTestDB(t, nil)
	require.NoError(t, repo.SaveRegion(&RegionSnapshot{Code: "AQ", Label: "Antarctica"}))

	got, err := repo.GetRegion("AQ")
	require.NoError(t, err)
	assert.NotNil(t, got.Hotspots)
	assert.Empty(t, got.Hotspots)
}

func TestListRegions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := setupTestDB(t, clock)

	summaries, err := repo.ListRegions()
	require.NoError(t, err)
	assert.Empty(t, summaries)

	require.NoError(t, repo.SaveRegion(sampleSnapshot()))
	require.NoError(t, repo.SaveRegion(&RegionSnapshot{Code: "AQ", Label: "Antarctica"}))

	summaries, err = repo.ListRegions()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "AQ", summaries[0].Code)
	assert.Equal(t, 0, summaries[0].Hotspots)
	assert.Equal(t, "US-OH-001", summaries[1].Code)
	assert.Equal(t, 3, summaries[1].Hotspots)
	assert.True(t, clock.Now().Equal(summaries[1].FetchedAt))
}

func TestIsFresh(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := setupTestDB(t, clock)

	fresh, err := repo.IsFresh("US-OH-001", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh, "missing regions are never fresh")

	require.NoError(t, repo.SaveRegion(sampleSnapshot()))

	fresh, err = repo.IsFresh("US-OH-001", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	clock.Advance(59 * time.Minute)

	fresh, err = repo.IsFresh("US-OH-001", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	clock.Advance(time.Minute)

	fresh, err = repo.IsFresh("US-OH-001", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestRepositoryAsRegionSource(t *testing.T) {
	repo := setupTestDB(t, nil)
	require.NoError(t, repo.SaveRegion(sampleSnapshot()))

	var source RegionSource = repo

	snapshot, err := source.Region(context.Background(), "US-OH-001")
	require.NoError(t, err)

	report, err := DetectRegion(snapshot, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"L9", "L1"}}, clusterIDs(report.Proximity))
}

func TestSeedRoundTrip(t *testing.T) {
	src := setupTestDB(t, nil)
	require.NoError(t, src.SaveRegion(sampleSnapshot()))
	require.NoError(t, src.SaveRegion(&RegionSnapshot{Code: "AQ", Label: "Antarctica"}))

	path := filepath.Join(t.TempDir(), "seed.json")

	exported, err := ExportToJSON(src, path)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	dst := setupTestDB(t, nil)

	seeded, imported, err := SeedIfEmpty(dst, path)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, 2, imported)

	got, err := dst.GetRegion("US-OH-001")
	require.NoError(t, err)

	if diff := cmp.Diff(sampleSnapshot(), got); diff != "" {
		t.Errorf("seeded region mismatch (-want +got):\n%s", diff)
	}

	// Second call is a no-op.
	seeded, count, err := SeedIfEmpty(dst, path)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, 2, count)
}

func TestSeedIfEmptyWithoutFile(t *testing.T) {
	repo := setupTestDB(t, nil)

	seeded, imported, err := SeedIfEmpty(repo, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Zero(t, imported)
}
