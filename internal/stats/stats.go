// Package stats aggregates completed tasks per calendar bucket so clients
// can draw productivity charts. Only tasks with a completion timestamp
// count, and every query is scoped to the requesting user.
package stats

import (
	"context"
	"database/sql"
	"fmt"
)

// Bucket is one aggregation row: a calendar bucket and how many tasks the
// user completed in it.
type Bucket struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Granularities accepted by the aggregation queries.
const (
	ByDay   = "day"
	ByWeek  = "week"
	ByMonth = "month"
	ByYear  = "year"
)

// bucketFormats maps a granularity to the MariaDB DATE_FORMAT pattern used
// as the GROUP BY key. Weeks use the ISO year and week number so a week
// spanning a year boundary lands in a single bucket.
var bucketFormats = map[string]string{
	ByDay:   "%Y-%m-%d",
	ByWeek:  "%x-W%v",
	ByMonth: "%Y-%m",
	ByYear:  "%Y",
}

// Repository runs the aggregation queries.
type Repository interface {
	CompletedByBucket(ctx context.Context, userID, granularity string) ([]Bucket, error)
}

type mariaDBRepository struct {
	db *sql.DB
}

// NewMariaDBRepository creates a stats repository backed by MariaDB.
func NewMariaDBRepository(db *sql.DB) Repository {
	return &mariaDBRepository{db: db}
}

func (r *mariaDBRepository) CompletedByBucket(ctx context.Context, userID, granularity string) ([]Bucket, error) {
	format, ok := bucketFormats[granularity]
	if !ok {
		return nil, fmt.Errorf("unknown granularity %q", granularity)
	}

	query := `
		SELECT DATE_FORMAT(completed_at, ?) AS bucket, COUNT(*) AS total
		FROM tasks
		WHERE user_id = ? AND completed_at IS NOT NULL
		GROUP BY bucket
		ORDER BY bucket
	`
	rows, err := r.db.QueryContext(ctx, query, format, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregating completed tasks by %s: %w", granularity, err)
	}
	defer rows.Close()

	buckets := make([]Bucket, 0)
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Period, &b.Count); err != nil {
			return nil, fmt.Errorf("scanning bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating buckets: %w", err)
	}
	return buckets, nil
}
