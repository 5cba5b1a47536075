package dump

import (
	"context"
	"fmt"

	"yatranslator/internal/textutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const createDumpTable = `CREATE TABLE IF NOT EXISTS untranslated_dumps (
	hash       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	level      INTEGER NOT NULL,
	line       TEXT NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertDump = `INSERT INTO untranslated_dumps (hash, kind, level, line)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash) DO NOTHING`

// execer is the subset of pgxpool.Pool the sink needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink stores dump entries in PostgreSQL, deduplicated by line hash
// across runs.
type PostgresSink struct {
	db    execer
	close func()
}

// OpenPostgres returns an OpenFunc connecting to databaseURL.
func OpenPostgres(databaseURL string) OpenFunc {
	return func(ctx context.Context) (Sink, error) {
		return NewPostgresSink(ctx, databaseURL)
	}
}

// NewPostgresSink connects, pings and ensures the dump table exists.
func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}

	sink := &PostgresSink{db: pool, close: pool.Close}
	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Msg("Dumping untranslated content to PostgreSQL")
	return sink, nil
}

// EnsureSchema creates the dump table if it is missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createDumpTable); err != nil {
		return fmt.Errorf("create dump table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx, insertDump, textutil.Hash(e.Line), e.Kind.String(), e.Level, e.Line)
	if err != nil {
		return fmt.Errorf("insert dump entry: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
