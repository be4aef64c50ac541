package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/wallhub/internal/models"
)

// Notified reports whether a notification of kind was already sent for the
// entry.
func (db *DB) Notified(source, date, kind string) (bool, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT count(*) FROM notifications WHERE source = ? AND date = ? AND kind = ?`,
		source, date, kind,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("ledger: notified: %w", err)
	}
	return n > 0, nil
}

// RecordNotification marks a notification as sent.
func (db *DB) RecordNotification(source, date, kind string) error {
	_, err := db.conn.Exec(`
		INSERT INTO notifications (source, date, kind, sent_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, date, kind) DO UPDATE SET sent_at = excluded.sent_at
	`, source, date, kind, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ledger: record notification: %w", err)
	}
	return nil
}

// UploadChecksum returns the checksum of the last upload of key, or empty
// string if it was never uploaded.
func (db *DB) UploadChecksum(key string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM uploads WHERE key = ?`, key).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ledger: upload checksum: %w", err)
	}
	return cs, nil
}

// RecordUpload stores the checksum and URL of an upload.
func (db *DB) RecordUpload(key, checksum, url string) error {
	_, err := db.conn.Exec(`
		INSERT INTO uploads (key, checksum, url, uploaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			checksum    = excluded.checksum,
			url         = excluded.url,
			uploaded_at = excluded.uploaded_at
	`, key, checksum, url, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ledger: record upload: %w", err)
	}
	return nil
}

// RecordRun appends a run and returns its id.
func (db *DB) RecordRun(r models.Run) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO runs (command, source, target, created, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Command, r.Source, r.Target, r.Created, r.Failed, r.StartedAt.UTC(), r.FinishedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("ledger: record run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, command, source, target, created, failed, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	defer rows.Close()

	var out []models.Run
	for rows.Next() {
		var r models.Run
		if err := rows.Scan(&r.ID, &r.Command, &r.Source, &r.Target, &r.Created, &r.Failed, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
