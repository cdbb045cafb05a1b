// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jonboulle/clockwork"
	"github.com/uber/h3-go/v4"
)

// storedCellResolution is the H3 resolution kept next to each hotspot.
const storedCellResolution = 8

// RegionSummary describes a stored region.
type RegionSummary struct {
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	Hotspots  int       `json:"hotspots"`
	FetchedAt time.Time `json:"fetched_at"`
}

// HotspotRepository persists region snapshots.
type HotspotRepository interface {
	RegionSource

	// CreateSchema creates the regions and hotspots tables
	CreateSchema() error

	// SaveRegion replaces the stored hotspots of a region
	SaveRegion(snapshot *RegionSnapshot) error

	// GetRegion returns a stored region, hotspots in their original order
	GetRegion(code string) (*RegionSnapshot, error)

	// ListRegions returns a summary of every stored region, by code
	ListRegions() ([]*RegionSummary, error)

	// IsFresh reports whether the region was stored less than maxAge ago
	IsFresh(code string, maxAge time.Duration) (bool, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlHotspotRepository struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewHotspotRepository creates a repository backed by db. A nil clock means
// the real one.
func NewHotspotRepository(db *sql.DB, clock clockwork.Clock) HotspotRepository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &sqlHotspotRepository{db: db, clock: clock}
}

func (r *sqlHotspotRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlHotspotRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS regions (
			code VARCHAR PRIMARY KEY,
			label VARCHAR NOT NULL,
			fetched_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS hotspots (
			region VARCHAR NOT NULL,
			id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			lat DOUBLE,
			lng DOUBLE,
			country_code VARCHAR,
			state_code VARCHAR,
			county_code VARCHAR,
			num_species INTEGER,
			latest_obs VARCHAR,
			h3_res8 BIGINT,
			position INTEGER NOT NULL,
			PRIMARY KEY (region, id)
		);
	`)

	return err
}

// cellOf returns the resolution 8 cell of the hotspot, if it has valid
// coordinates.
func cellOf(h *Hotspot) (sql.NullInt64, error) {
	if !h.HasValidPoint() {
		return sql.NullInt64{}, nil
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(h.Point.Lat, h.Point.Lng), storedCellResolution)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("error converting %s to h3 cell: %w", h.ID, err)
	}

	return sql.NullInt64{Int64: int64(cell), Valid: true}, nil
}

func (r *sqlHotspotRepository) SaveRegion(snapshot *RegionSnapshot) (err error) {
	if err := validateHotspots(snapshot.Hotspots); err != nil {
		return fmt.Errorf("saving region %s: %w", snapshot.Code, err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.Exec(`DELETE FROM hotspots WHERE region = ?`, snapshot.Code); err != nil {
		return fmt.Errorf("deleting hotspots of %s: %w", snapshot.Code, err)
	}

	if _, err = tx.Exec(`DELETE FROM regions WHERE code = ?`, snapshot.Code); err != nil {
		return fmt.Errorf("deleting region %s: %w", snapshot.Code, err)
	}

	if _, err = tx.Exec(
		`INSERT INTO regions(code, label, fetched_at) VALUES (?, ?, ?)`,
		snapshot.Code, snapshot.Label, r.clock.Now().UTC(),
	); err != nil {
		return fmt.Errorf("inserting region %s: %w", snapshot.Code, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO hotspots(
			region, id, name, lat, lng,
			country_code, state_code, county_code,
			num_species, latest_obs, h3_res8, position
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, h := range snapshot.Hotspots {
		var lat, lng sql.NullFloat64
		if h.Point != nil {
			lat = sql.NullFloat64{Float64: h.Point.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: h.Point.Lng, Valid: true}
		}

		var cell sql.NullInt64
		if cell, err = cellOf(h); err != nil {
			return err
		}

		if _, err = stmt.Exec(
			snapshot.Code, h.ID, h.Name, lat, lng,
			nullString(h.CountryCode), nullString(h.StateCode), nullString(h.CountyCode),
			h.NumSpeciesAllTime, nullString(h.LatestObsDt), cell, i,
		); err != nil {
			return fmt.Errorf("inserting hotspot %s: %w", h.ID, err)
		}
	}

	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *sqlHotspotRepository) GetRegion(code string) (*RegionSnapshot, error) {
	return r.Region(context.Background(), code)
}

// Region implements RegionSource over the stored snapshots.
func (r *sqlHotspotRepository) Region(ctx context.Context, code string) (*RegionSnapshot, error) {
	snapshot := &RegionSnapshot{Code: code, Hotspots: []*Hotspot{}}

	err := r.db.QueryRowContext(ctx, `SELECT label FROM regions WHERE code = ?`, code).Scan(&snapshot.Label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s is not stored: %w", ErrRegionNotFound, code, err)
		}

		return nil, fmt.Errorf("%w: reading region %s: %w", ErrRegionNotFound, code, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, lat, lng, country_code, state_code, county_code, num_species, latest_obs
		FROM hotspots
		WHERE region = ?
		ORDER BY position
	`, code)
	if err != nil {
		return nil, fmt.Errorf("%w: reading hotspots of %s: %w", ErrRegionNotFound, code, err)
	}
	defer rows.Close()

	for rows.Next() {
		h := &Hotspot{}

		var lat, lng sql.NullFloat64

		var countryCode, stateCode, countyCode, latestDt sql.NullString

		var numSpecies sql.NullInt64

		if err := rows.Scan(
			&h.ID, &h.Name, &lat, &lng,
			&countryCode, &stateCode, &countyCode, &numSpecies, &latestDt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning hotspot of %s: %w", ErrRegionNotFound, code, err)
		}

		if lat.Valid && lng.Valid {
			h.Point = &spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
		}

		h.CountryCode = countryCode.String
		h.StateCode = stateCode.String
		h.CountyCode = countyCode.String
		h.LatestObsDt = latestDt.String
		h.NumSpeciesAllTime = int(numSpecies.Int64)

		snapshot.Hotspots = append(snapshot.Hotspots, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading hotspots of %s: %w", ErrRegionNotFound, code, err)
	}

	return snapshot, nil
}

func (r *sqlHotspotRepository) ListRegions() ([]*RegionSummary, error) {
	rows, err := r.db.Query(`
		SELECT r.code, r.label, r.fetched_at, COUNT(h.id)
		FROM regions r
		LEFT JOIN hotspots h ON h.region = r.code
		GROUP BY r.code, r.label, r.fetched_at
		ORDER BY r.code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []*RegionSummary{}

	for rows.Next() {
		s := &RegionSummary{}
		if err := rows.Scan(&s.Code, &s.Label, &s.FetchedAt, &s.Hotspots); err != nil {
			return nil, err
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (r *sqlHotspotRepository) IsFresh(code string, maxAge time.Duration) (bool, error) {
	var fetchedAt time.Time

	err := r.db.QueryRow(`SELECT fetched_at FROM regions WHERE code = ?`, code).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return r.clock.Since(fetchedAt) < maxAge, nil
}
