// Package sqlite is a persistent credential store for command line use. Each
// profile is an independent pair of credential slots.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	_ "modernc.org/sqlite"
)

// opTimeout bounds every statement issued through the Store interface.
const opTimeout = 5 * time.Second

type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewStore(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection serialises writers within the process.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger, Now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Profile returns the credential slots of one named profile.
func (s *Store) Profile(name string) *ProfileStore {
	return &ProfileStore{s: s, profile: name}
}

// Profiles lists profiles holding at least one live credential.
func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT profile FROM credentials WHERE expires_at > ? ORDER BY profile`,
		s.Now().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteExpired removes credentials past their max-age and returns how many
// rows went.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE expires_at <= ?`, s.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) get(ctx context.Context, profile string, key store.Key) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE profile = ? AND key = ? AND expires_at > ?`,
		profile, string(key), s.Now().Unix(),
	).Scan(&value)
	return value, err
}

func (s *Store) set(ctx context.Context, profile string, key store.Key, value string, maxAge time.Duration) error {
	now := s.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (profile, key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (profile, key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		profile, string(key), value, now.Add(maxAge).Unix(), now.Unix())
	return err
}

func (s *Store) clear(ctx context.Context, profile string, key store.Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE profile = ? AND key = ?`, profile, string(key))
	return err
}

// ProfileStore adapts one profile to store.Store. Database failures are
// logged and reported as an absent credential.
type ProfileStore struct {
	s       *Store
	profile string
}

var _ store.Store = (*ProfileStore)(nil)

func (p *ProfileStore) Name() string { return p.profile }

func (p *ProfileStore) Get(key store.Key) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	value, err := p.s.get(ctx, p.profile, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false
	case err != nil:
		p.s.logger.Error("failed to read credential", "profile", p.profile, "key", key, "error", err)
		return "", false
	}
	return value, true
}

func (p *ProfileStore) Set(key store.Key, value string, maxAge time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var err error
	if maxAge <= 0 {
		err = p.s.clear(ctx, p.profile, key)
	} else {
		err = p.s.set(ctx, p.profile, key, value, maxAge)
	}
	if err != nil {
		p.s.logger.Error("failed to write credential", "profile", p.profile, "key", key, "error", err)
	}
}

func (p *ProfileStore) Clear(key store.Key) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := p.s.clear(ctx, p.profile, key); err != nil {
		p.s.logger.Error("failed to clear credential", "profile", p.profile, "key", key, "error", err)
	}
}
