package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/payland/gateway/internal/model"
	"github.com/payland/gateway/internal/session"
)

// PgSessionArea is the Postgres-backed durable session area. Records written
// here survive gateway restarts, which is what "remember me" promises.
type PgSessionArea struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPgSessionArea creates a durable session area on top of db.
func NewPgSessionArea(db *sql.DB, ttl time.Duration) *PgSessionArea {
	return &PgSessionArea{db: db, ttl: ttl}
}

var _ session.Area = (*PgSessionArea)(nil)

// Put stores or replaces the record for id.
func (a *PgSessionArea) Put(ctx context.Context, id string, rec model.SessionRecord) error {
	userJSON, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("marshal session user: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token, user_json, sidebar_collapsed, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET token = EXCLUDED.token,
		    user_json = EXCLUDED.user_json,
		    sidebar_collapsed = EXCLUDED.sidebar_collapsed,
		    expires_at = EXCLUDED.expires_at
	`, id, rec.Token, userJSON, rec.SidebarCollapsed, rec.CreatedAt, time.Now().Add(a.ttl))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get returns the record for id, or session.ErrNoSession when absent or expired.
func (a *PgSessionArea) Get(ctx context.Context, id string) (model.SessionRecord, error) {
	var (
		rec      model.SessionRecord
		userJSON []byte
	)
	err := a.db.QueryRowContext(ctx, `
		SELECT token, user_json, sidebar_collapsed, created_at
		FROM sessions
		WHERE id = $1 AND expires_at > now()
	`, id).Scan(&rec.Token, &userJSON, &rec.SidebarCollapsed, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.SessionRecord{}, session.ErrNoSession
		}
		return model.SessionRecord{}, fmt.Errorf("query session: %w", err)
	}
	if err := json.Unmarshal(userJSON, &rec.User); err != nil {
		return model.SessionRecord{}, fmt.Errorf("decode session user: %w", err)
	}
	return rec, nil
}

// Delete removes the record for id. Deleting a missing record is not an error.
func (a *PgSessionArea) Delete(ctx context.Context, id string) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows; called periodically from main.
func (a *PgSessionArea) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
