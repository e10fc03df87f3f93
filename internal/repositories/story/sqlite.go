package story

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/internal/repositories"
	apperrors "github.com/dwikidiandra/dstory/pkg/errors"
	"github.com/dwikidiandra/dstory/pkg/logger"
)

type Sqlite struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSqlite(db *sql.DB, logger logger.Logger) *Sqlite {
	return &Sqlite{
		db:     db,
		logger: logger.WithComponent("StoryStore"),
	}
}

var _ Repository = (*Sqlite)(nil)

const storyColumns = "id, name, description, photo_url, lat, lon, created_at"

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *Sqlite) GetByID(ctx context.Context, id string) (*domain.Story, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "name", "description", "photo_url", "lat", "lon", "created_at").
		From("stories").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	story, err := scanStory(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Join(err, apperrors.ErrStorage)
	}
	return story, nil
}

func (s *Sqlite) GetAll(ctx context.Context) ([]domain.Story, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "name", "description", "photo_url", "lat", "lon", "created_at").
		From("stories").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(err, apperrors.ErrStorage)
	}
	defer rows.Close()

	var stories []domain.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, errors.Join(err, apperrors.ErrStorage)
		}
		stories = append(stories, *story)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(err, apperrors.ErrStorage)
	}

	return stories, nil
}

func (s *Sqlite) Put(ctx context.Context, story domain.Story) error {
	return s.put(ctx, s.db, story)
}

func (s *Sqlite) PutAll(ctx context.Context, stories []domain.Story) error {
	if len(stories) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, story := range stories {
		if err := s.put(ctx, tx, story); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Sqlite) put(ctx context.Context, run execer, story domain.Story) error {
	query, args, err := repositories.SqBuilder.
		Insert("stories").
		Columns("id", "name", "description", "photo_url", "lat", "lon", "created_at").
		Values(
			story.ID,
			story.Name,
			story.Description,
			story.PhotoURL,
			story.Lat,
			story.Lon,
			toMillis(story.CreatedAt),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			photo_url = excluded.photo_url,
			lat = excluded.lat,
			lon = excluded.lon,
			created_at = excluded.created_at`).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := run.ExecContext(ctx, query, args...); err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}
	return nil
}

func (s *Sqlite) Delete(ctx context.Context, id string) error {
	query, args, err := repositories.SqBuilder.
		Delete("stories").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}
	return nil
}

func (s *Sqlite) Clear(ctx context.Context) error {
	query, args, err := repositories.SqBuilder.
		Delete("stories").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Join(err, apperrors.ErrStorage)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (*domain.Story, error) {
	var (
		story     domain.Story
		lat, lon  sql.NullFloat64
		createdAt int64
	)
	if err := row.Scan(&story.ID, &story.Name, &story.Description, &story.PhotoURL, &lat, &lon, &createdAt); err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		story.Lat = &lat.Float64
		story.Lon = &lon.Float64
	}
	story.CreatedAt = fromMillis(createdAt)
	return &story, nil
}
