package handstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"AutoHoldem/internal/game/table"
)

// Dialect SQL 方言，只影响占位符
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type sqlStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore 使用已经打开的连接；调用方负责先执行 Migrate
func NewSQLStore(db *sql.DB, dialect Dialect) Store {
	return &sqlStore{db: db, dialect: dialect}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hand_states (
    table_id   TEXT PRIMARY KEY,
    version    BIGINT NOT NULL,
    state      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS hand_events (
    table_id TEXT NOT NULL,
    version  BIGINT NOT NULL,
    idx      INTEGER NOT NULL,
    hand_id  TEXT NOT NULL,
    kind     TEXT NOT NULL,
    data     TEXT NOT NULL,
    PRIMARY KEY (table_id, version, idx)
)`,
}

// Migrate 建表（幂等）
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate hand store: %w", err)
		}
	}
	return nil
}

// rebind 把 ? 占位符换成 postgres 的 $n
func (s *sqlStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Load(ctx context.Context, tableID string) (Record, error) {
	var (
		version int64
		raw     string
		updated time.Time
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
SELECT version, state, updated_at
FROM hand_states
WHERE table_id = ?`), tableID).Scan(&version, &raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, unavailable(err)
	}
	state, err := decodeState([]byte(raw))
	if err != nil {
		return Record{}, err
	}
	return Record{TableID: tableID, Version: version, State: state, UpdatedAt: updated}, nil
}

func (s *sqlStore) CompareAndSwap(ctx context.Context, tableID string, fromVersion int64, state *table.HandState, events []table.Event) (Record, error) {
	raw, err := encodeState(state)
	if err != nil {
		return Record{}, err
	}
	rec := Record{TableID: tableID, Version: fromVersion + 1, State: state.Clone(), UpdatedAt: time.Now().UTC()}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, unavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	var res sql.Result
	if fromVersion == 0 {
		res, err = tx.ExecContext(ctx, s.rebind(`
INSERT INTO hand_states (table_id, version, state, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (table_id) DO NOTHING`), tableID, rec.Version, string(raw), rec.UpdatedAt)
	} else {
		res, err = tx.ExecContext(ctx, s.rebind(`
UPDATE hand_states
SET version = ?, state = ?, updated_at = ?
WHERE table_id = ? AND version = ?`), rec.Version, string(raw), rec.UpdatedAt, tableID, fromVersion)
	}
	if err != nil {
		return Record{}, unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, unavailable(err)
	}
	if n == 0 {
		return Record{}, ErrVersionConflict
	}

	for i, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return Record{}, fmt.Errorf("encode event %s: %w", e.Kind, err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO hand_events (table_id, version, idx, hand_id, kind, data)
VALUES (?, ?, ?, ?, ?, ?)`), tableID, rec.Version, i, e.HandID, e.Kind, string(data)); err != nil {
			return Record{}, unavailable(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, unavailable(err)
	}
	return rec, nil
}

func (s *sqlStore) Events(ctx context.Context, tableID string) ([]table.Event, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT hand_id, kind, data
FROM hand_events
WHERE table_id = ?
ORDER BY version, idx`), tableID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var out []table.Event
	for rows.Next() {
		var (
			e    table.Event
			data string
		)
		if err := rows.Scan(&e.HandID, &e.Kind, &data); err != nil {
			return nil, unavailable(err)
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", e.Kind, err)
		}
		out = append(out, e)
	}
	return out, unavailable(rows.Err())
}
