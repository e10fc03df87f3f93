package interceptor

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dwikidiandra/dstory/internal/repositories"
	apperrors "github.com/dwikidiandra/dstory/pkg/errors"
	"github.com/dwikidiandra/dstory/pkg/logger"
)

// Entry is one cached response snapshot. Entries are immutable; a racing
// revalidation simply replaces the whole row, so last-write-wins is safe.
type Entry struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Response materializes the entry as an http.Response for the given request.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// Store is the cache storage owned by the interceptor. Nothing outside this
// package reads or writes it.
type Store interface {
	// Get returns the cached entry, or nil when absent.
	Get(ctx context.Context, class Class, key string) (*Entry, error)
	Put(ctx context.Context, class Class, key string, entry Entry) error
	// Prune applies the class eviction policy: entries past maxAge are
	// dropped first, then the least recently stored beyond maxEntries.
	// Zero values disable the respective limit.
	Prune(ctx context.Context, class Class, maxEntries int, maxAge time.Duration) error
	// DropClassesExcept deletes every namespace not in keep. Run at
	// activation to garbage-collect caches left by previous versions.
	DropClassesExcept(ctx context.Context, keep []Class) error
}

type SqliteStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSqliteStore(db *sql.DB, logger logger.Logger) *SqliteStore {
	return &SqliteStore{
		db:     db,
		logger: logger.WithComponent("HttpCache"),
	}
}

var _ Store = (*SqliteStore)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *SqliteStore) Get(ctx context.Context, class Class, key string) (*Entry, error) {
	query, args, err := repositories.SqBuilder.
		Select("status", "headers", "body", "stored_at").
		From("http_cache").
		Where(sq.Eq{"class": string(class), "url": key}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var (
		entry    Entry
		headers  string
		storedAt int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&entry.Status, &headers, &entry.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(err, apperrors.ErrStorage)
	}

	if err := json.Unmarshal([]byte(headers), &entry.Header); err != nil {
		return nil, errors.Join(err, apperrors.ErrStorage)
	}
	entry.StoredAt = fromMillis(storedAt)
	return &entry, nil
}

func (s *SqliteStore) Put(ctx context.Context, class Class, key string, entry Entry) error {
	headers, err := json.Marshal(entry.Header)
	if err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}

	query, args, err := repositories.SqBuilder.
		Insert("http_cache").
		Columns("class", "url", "status", "headers", "body", "stored_at").
		Values(string(class), key, entry.Status, string(headers), entry.Body, toMillis(entry.StoredAt)).
		Suffix(`ON CONFLICT (class, url) DO UPDATE SET
			status = excluded.status,
			headers = excluded.headers,
			body = excluded.body,
			stored_at = excluded.stored_at`).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}
	return nil
}

func (s *SqliteStore) Prune(ctx context.Context, class Class, maxEntries int, maxAge time.Duration) error {
	if maxAge > 0 {
		cutoff := toMillis(time.Now().Add(-maxAge))
		query, args, err := repositories.SqBuilder.
			Delete("http_cache").
			Where(sq.Eq{"class": string(class)}).
			Where(sq.Lt{"stored_at": cutoff}).
			ToSql()
		if err != nil {
			return repositories.ErrBadQuery
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return errors.Join(err, apperrors.ErrStorage)
		}
	}

	if maxEntries > 0 {
		query, args, err := repositories.SqBuilder.
			Delete("http_cache").
			Where(sq.Eq{"class": string(class)}).
			Where(sq.Expr(
				"url NOT IN (SELECT url FROM http_cache WHERE class = ? ORDER BY stored_at DESC LIMIT ?)",
				string(class), maxEntries,
			)).
			ToSql()
		if err != nil {
			return repositories.ErrBadQuery
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return errors.Join(err, apperrors.ErrStorage)
		}
	}

	return nil
}

func (s *SqliteStore) DropClassesExcept(ctx context.Context, keep []Class) error {
	names := make([]string, 0, len(keep))
	for _, class := range keep {
		names = append(names, string(class))
	}

	query, args, err := repositories.SqBuilder.
		Delete("http_cache").
		Where(sq.NotEq{"class": names}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}
	return nil
}
