package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/textlens/internal/models"
)

// CreateAnalysis inserts a new analysis and returns the stored row, including
// the assigned auto-increment ID and timestamps.
func (s *Store) CreateAnalysis(ctx context.Context, a models.Analysis) (*models.Analysis, error) {
	topics, err := marshalList(a.Topics)
	if err != nil {
		return nil, fmt.Errorf("marshal topics: %w", err)
	}
	keywords, err := marshalList(a.Keywords)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (
            original_text, summary, title, topics, sentiment, keywords,
            confidence_score, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.OriginalText,
		a.Summary,
		a.Title,
		topics,
		a.Sentiment,
		keywords,
		a.ConfidenceScore,
		createdAt.Format(time.RFC3339Nano),
		nullableTime(a.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetAnalysis(ctx, id)
}

// GetAnalysis fetches one analysis by ID. Returns ErrNotFound when no row
// exists.
func (s *Store) GetAnalysis(ctx context.Context, id int64) (*models.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, original_text, summary, title, topics, sentiment, keywords,
                confidence_score, created_at, updated_at
         FROM analyses WHERE id = ?`, id)

	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// SearchAnalyses returns analyses matching the given filters, newest first,
// plus the total match count before pagination. Topic is a case-insensitive
// substring match over the serialized topics column, keyword over the
// keywords column; both filters combine with AND. Empty filters match
// everything.
func (s *Store) SearchAnalyses(ctx context.Context, topic, keyword string, limit, offset int) ([]models.Analysis, int, error) {
	where := "1=1"
	args := []any{}
	if topic != "" {
		where += " AND lower(topics) LIKE ?"
		args = append(args, "%"+strings.ToLower(topic)+"%")
	}
	if keyword != "" {
		where += " AND lower(keywords) LIKE ?"
		args = append(args, "%"+strings.ToLower(keyword)+"%")
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM analyses WHERE "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, original_text, summary, title, topics, sentiment, keywords,
                confidence_score, created_at, updated_at
         FROM analyses
         WHERE `+where+`
         ORDER BY created_at DESC, id DESC
         LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search analyses: %w", err)
	}
	defer rows.Close()

	results := []models.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan analysis: %w", err)
		}
		results = append(results, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate analyses: %w", err)
	}
	return results, total, nil
}

// CountAnalyses returns the total number of stored analyses.
func (s *Store) CountAnalyses(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&n); err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*models.Analysis, error) {
	var (
		a         models.Analysis
		title     sql.NullString
		topics    string
		keywords  string
		createdAt string
		updatedAt sql.NullString
	)
	err := row.Scan(&a.ID, &a.OriginalText, &a.Summary, &title, &topics,
		&a.Sentiment, &keywords, &a.ConfidenceScore, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		a.Title = &title.String
	}
	if a.Topics, err = unmarshalList(topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	if a.Keywords, err = unmarshalList(keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if updatedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		a.UpdatedAt = &t
	}
	return &a, nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalList(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
