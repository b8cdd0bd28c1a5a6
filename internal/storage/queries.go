package storage

import (
	"database/sql"
	"fmt"

	"github.com/pitchside/go-pitch-events/internal/model"
)

// RunSummary is one analysis run's record in the runs table.
type RunSummary struct {
	ID         string
	SourceHash string
	SourcePath string
	CreatedAt  string
	FPS        float64

	EventsTotal   int
	Passes        int
	Interceptions int
	Shots         int
	Goals         int
	ZoneDwells    int
	SkippedRows   int
	Notices       string
}

// InsertRun inserts a run record. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertRun(run RunSummary) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO runs(
			id, source_hash, source_path, created_at, fps,
			events_total, passes, interceptions, shots, goals, zone_dwells,
			skipped_rows, notices
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.SourceHash, run.SourcePath, run.CreatedAt, run.FPS,
		run.EventsTotal, run.Passes, run.Interceptions, run.Shots, run.Goals,
		run.ZoneDwells, run.SkippedRows, run.Notices,
	)
	return err
}

// InsertEvents bulk-inserts a run's events in a transaction, preserving
// their order via seq.
func (db *DB) InsertEvents(runID string, events []model.Event) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO events(
			run_id, seq, event_type, frame_num, timestamp, confidence,
			player_id, player_name, team,
			start_x, start_y, end_x, end_y, is_manual, metadata
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for seq, ev := range events {
		sx, sy := posCols(ev.StartPos)
		ex, ey := posCols(ev.EndPos)
		_, err = stmt.Exec(
			runID, seq, string(ev.Type), ev.FrameNum, ev.Timestamp, ev.Confidence,
			ev.PlayerID, ev.PlayerName, ev.Team,
			sx, sy, ex, ey, boolInt(ev.Manual), model.EncodeMetadata(ev.Metadata),
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", seq, err)
		}
	}
	return tx.Commit()
}

// InsertAccuracy bulk-inserts pass accuracy rows for a run.
func (db *DB) InsertAccuracy(runID string, metrics []model.AccuracyMetrics) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO pass_accuracy(
			run_id, scope, key, label,
			successful, incomplete, intercepted, completion_rate
		) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		_, err = stmt.Exec(
			runID, string(m.Scope), m.Key, m.Label,
			m.Successful, m.Incomplete, m.Intercepted, m.CompletionRate(),
		)
		if err != nil {
			return fmt.Errorf("insert accuracy for %s %s: %w", m.Scope, m.Key, err)
		}
	}
	return tx.Commit()
}

const runCols = `id, source_hash, source_path, created_at, fps,
	events_total, passes, interceptions, shots, goals, zone_dwells,
	skipped_rows, notices`

func scanRun(row interface{ Scan(...any) error }) (*RunSummary, error) {
	var r RunSummary
	err := row.Scan(
		&r.ID, &r.SourceHash, &r.SourcePath, &r.CreatedAt, &r.FPS,
		&r.EventsTotal, &r.Passes, &r.Interceptions, &r.Shots, &r.Goals,
		&r.ZoneDwells, &r.SkippedRows, &r.Notices,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns all stored runs, newest first.
func (db *DB) ListRuns() ([]RunSummary, error) {
	rows, err := db.conn.Query("SELECT " + runCols + " FROM runs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRunByPrefix returns the run whose id starts with prefix, nil when no
// run matches, and an error when the prefix is ambiguous.
func (db *DB) GetRunByPrefix(prefix string) (*RunSummary, error) {
	rows, err := db.conn.Query("SELECT "+runCols+" FROM runs WHERE id LIKE ? || '%' LIMIT 2", prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous", prefix)
	}
}

// FindRunBySourceHash returns the stored run for a dataset hash, or nil.
func (db *DB) FindRunBySourceHash(hash string) (*RunSummary, error) {
	row := db.conn.QueryRow("SELECT "+runCols+" FROM runs WHERE source_hash = ? ORDER BY created_at DESC LIMIT 1", hash)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// LoadEvents returns a run's events in stored order.
func (db *DB) LoadEvents(runID string) ([]model.Event, error) {
	rows, err := db.conn.Query(`
		SELECT event_type, frame_num, timestamp, confidence,
			player_id, player_name, team,
			start_x, start_y, end_x, end_y, is_manual, metadata
		FROM events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			ev             model.Event
			typ, metadata  string
			sx, sy, ex, ey sql.NullFloat64
			manual         int
		)
		err := rows.Scan(
			&typ, &ev.FrameNum, &ev.Timestamp, &ev.Confidence,
			&ev.PlayerID, &ev.PlayerName, &ev.Team,
			&sx, &sy, &ex, &ey, &manual, &metadata,
		)
		if err != nil {
			return nil, err
		}
		t, ok := model.ParseEventType(typ)
		if !ok {
			return nil, fmt.Errorf("stored event has unknown type %q", typ)
		}
		ev.Type = t
		ev.Manual = manual != 0
		ev.Metadata = model.DecodeMetadata(metadata)
		if sx.Valid && sy.Valid {
			ev.StartPos = &model.Vec2{X: sx.Float64, Y: sy.Float64}
		}
		if ex.Valid && ey.Valid {
			ev.EndPos = &model.Vec2{X: ex.Float64, Y: ey.Float64}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LoadAccuracy returns a run's pass accuracy rows, players before teams.
func (db *DB) LoadAccuracy(runID string) ([]model.AccuracyMetrics, error) {
	rows, err := db.conn.Query(`
		SELECT scope, key, label, successful, incomplete, intercepted
		FROM pass_accuracy WHERE run_id = ? ORDER BY scope, key`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AccuracyMetrics
	for rows.Next() {
		var m model.AccuracyMetrics
		var scope string
		if err := rows.Scan(&scope, &m.Key, &m.Label, &m.Successful, &m.Incomplete, &m.Intercepted); err != nil {
			return nil, err
		}
		m.Scope = model.AccuracyScope(scope)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its dependent rows.
func (db *DB) DeleteRun(id string) error {
	// Explicit deletes so the cleanup works even without foreign_keys=on.
	for _, q := range []string{
		"DELETE FROM events WHERE run_id = ?",
		"DELETE FROM pass_accuracy WHERE run_id = ?",
		"DELETE FROM runs WHERE id = ?",
	} {
		if _, err := db.conn.Exec(q, id); err != nil {
			return err
		}
	}
	return nil
}

func posCols(p *model.Vec2) (any, any) {
	if p == nil {
		return nil, nil
	}
	return p.X, p.Y
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
