package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

// PostgresStore persists posts and summaries in Postgres. It is the only
// owner of those records; stages hold transient views keyed by the same ids.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ContentStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// UpsertPosts inserts posts that do not exist yet. Existing rows are left
// untouched so a prior run's processed flag survives re-collection.
func (s *PostgresStore) UpsertPosts(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	insert := s.builder.
		Insert("posts").
		Columns("id", "source_id", "source_name", "content", "ts", "sequence_number", "category", "processed", "created_at")

	for _, post := range posts {
		insert = insert.Values(
			post.ID,
			post.SourceID,
			post.SourceName,
			post.Content,
			post.Timestamp,
			post.SequenceNumber,
			post.Category,
			post.Processed,
			post.CreatedAt,
		)
	}

	query, args, err := insert.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert posts: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert posts: %w", err)
	}

	return nil
}

// FindUnprocessed returns unprocessed posts within the age window, newest first.
func (s *PostgresStore) FindUnprocessed(ctx context.Context, maxAge time.Duration) ([]domain.Post, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	query, args, err := s.builder.
		Select(postColumns...).
		From("posts").
		Where(sq.Eq{"processed": false}).
		Where(sq.GtOrEq{"ts": cutoff}).
		OrderBy("ts DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select unprocessed: %w", err)
	}

	return s.queryPosts(ctx, query, args)
}

// FindByIDs returns posts matching the given ids, order not guaranteed.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []string) ([]domain.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := s.builder.
		Select(postColumns...).
		From("posts").
		Where(sq.Expr("id = ANY(?)", pq.StringArray(ids))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select by ids: %w", err)
	}

	return s.queryPosts(ctx, query, args)
}

// MarkProcessed flips processed to true for the given ids; unknown ids are a no-op.
func (s *PostgresStore) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := s.builder.
		Update("posts").
		Set("processed", true).
		Where(sq.Expr("id = ANY(?)", pq.StringArray(ids))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark processed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	return nil
}

// UpsertSummary stores a summary record keyed by id.
func (s *PostgresStore) UpsertSummary(ctx context.Context, summary domain.ProcessedSummary) error {
	structured, err := json.Marshal(summary.Structured)
	if err != nil {
		return fmt.Errorf("marshal structured summary: %w", err)
	}

	query, args, err := s.builder.
		Insert("summaries").
		Columns("id", "structured", "telegraph_url", "source_post_ids", "created_at", "published_at", "published").
		Values(
			summary.ID,
			structured,
			nullableString(summary.TelegraphURL),
			pq.StringArray(summary.SourcePostIDs),
			summary.CreatedAt,
			summary.PublishedAt,
			summary.Published,
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET structured = EXCLUDED.structured, telegraph_url = EXCLUDED.telegraph_url, published_at = EXCLUDED.published_at, published = EXCLUDED.published").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert summary: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}

	return nil
}

// PatchSummary applies the non-nil fields of the patch to the stored summary.
func (s *PostgresStore) PatchSummary(ctx context.Context, id string, patch domain.SummaryPatch) error {
	update := s.builder.Update("summaries").Where(sq.Eq{"id": id})

	changed := false
	if patch.TelegraphURL != nil {
		update = update.Set("telegraph_url", *patch.TelegraphURL)
		changed = true
	}
	if patch.Published != nil {
		update = update.Set("published", *patch.Published)
		changed = true
	}
	if patch.PublishedAt != nil {
		update = update.Set("published_at", *patch.PublishedAt)
		changed = true
	}
	if !changed {
		return nil
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build patch summary: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("patch summary: %w", err)
	}

	return nil
}

// FindSummaryByID loads one summary; unknown ids map to domain.ErrSummaryNotFound.
func (s *PostgresStore) FindSummaryByID(ctx context.Context, id string) (domain.ProcessedSummary, error) {
	query, args, err := s.builder.
		Select(summaryColumns...).
		From("summaries").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.ProcessedSummary{}, fmt.Errorf("build select summary: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProcessedSummary{}, fmt.Errorf("summary %s: %w", id, domain.ErrSummaryNotFound)
	}
	if err != nil {
		return domain.ProcessedSummary{}, fmt.Errorf("select summary: %w", err)
	}

	return summary, nil
}

// RecentPublished returns published summaries, newest publication first.
func (s *PostgresStore) RecentPublished(ctx context.Context, limit int) ([]domain.ProcessedSummary, error) {
	query, args, err := s.builder.
		Select(summaryColumns...).
		From("summaries").
		Where(sq.Eq{"published": true}).
		OrderBy("published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select published: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select published: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ProcessedSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return summaries, nil
}

var postColumns = []string{"id", "source_id", "source_name", "content", "ts", "sequence_number", "category", "processed", "created_at"}

var summaryColumns = []string{"id", "structured", "telegraph_url", "source_post_ids", "created_at", "published_at", "published"}

func (s *PostgresStore) queryPosts(ctx context.Context, query string, args []interface{}) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.ID,
			&post.SourceID,
			&post.SourceName,
			&post.Content,
			&post.Timestamp,
			&post.SequenceNumber,
			&post.Category,
			&post.Processed,
			&post.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return posts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner) (domain.ProcessedSummary, error) {
	var (
		summary      domain.ProcessedSummary
		structured   []byte
		telegraphURL sql.NullString
		publishedAt  sql.NullTime
		postIDs      pq.StringArray
	)

	if err := row.Scan(
		&summary.ID,
		&structured,
		&telegraphURL,
		&postIDs,
		&summary.CreatedAt,
		&publishedAt,
		&summary.Published,
	); err != nil {
		return domain.ProcessedSummary{}, err
	}

	if err := json.Unmarshal(structured, &summary.Structured); err != nil {
		return domain.ProcessedSummary{}, fmt.Errorf("unmarshal structured summary: %w", err)
	}

	summary.SourcePostIDs = []string(postIDs)
	if telegraphURL.Valid {
		summary.TelegraphURL = telegraphURL.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		summary.PublishedAt = &t
	}

	return summary, nil
}

func nullableString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
