package bookmark

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/internal/repositories"
	apperrors "github.com/dwikidiandra/dstory/pkg/errors"
	"github.com/dwikidiandra/dstory/pkg/logger"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type Sqlite struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSqlite(db *sql.DB, logger logger.Logger) *Sqlite {
	return &Sqlite{
		db:     db,
		logger: logger.WithComponent("BookmarkStore"),
	}
}

var _ Repository = (*Sqlite)(nil)

// storySnapshot is the denormalized story copy persisted with a bookmark.
type storySnapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *Sqlite) GetAll(ctx context.Context) ([]domain.Bookmark, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "story_id", "story_data", "created_at").
		From("bookmarks").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(err, apperrors.ErrStorage)
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var (
			bm        domain.Bookmark
			data      string
			createdAt int64
		)
		if err := rows.Scan(&bm.ID, &bm.StoryID, &data, &createdAt); err != nil {
			return nil, errors.Join(err, apperrors.ErrStorage)
		}

		var snap storySnapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return nil, errors.Join(err, apperrors.ErrStorage)
		}
		bm.StoryData = domain.Story(snap)
		bm.CreatedAt = fromMillis(createdAt)
		bookmarks = append(bookmarks, bm)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(err, apperrors.ErrStorage)
	}

	return bookmarks, nil
}

func (s *Sqlite) Add(ctx context.Context, story domain.Story) error {
	data, err := json.Marshal(storySnapshot(story))
	if err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}

	query, args, err := repositories.SqBuilder.
		Insert("bookmarks").
		Columns("id", "story_id", "story_data", "created_at").
		Values(
			domain.BookmarkID(story.ID),
			story.ID,
			string(data),
			toMillis(time.Now()),
		).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateBookmark
		}
		return errors.Join(err, apperrors.ErrStorage)
	}
	return nil
}

func (s *Sqlite) Remove(ctx context.Context, storyID string) (bool, error) {
	query, args, err := repositories.SqBuilder.
		Delete("bookmarks").
		Where(sq.Eq{"story_id": storyID}).
		ToSql()
	if err != nil {
		return false, repositories.ErrBadQuery
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Join(err, apperrors.ErrStorage)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Join(err, apperrors.ErrStorage)
	}
	return affected > 0, nil
}

func (s *Sqlite) IsBookmarked(ctx context.Context, storyID string) bool {
	query, args, err := repositories.SqBuilder.
		Select("1").
		From("bookmarks").
		Where(sq.Eq{"story_id": storyID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false
	}

	var one int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Bookmark lookup failed", "story_id", storyID, "error", err)
		}
		return false
	}
	return true
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
