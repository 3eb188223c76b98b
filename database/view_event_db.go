package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ViewEventStats summarizes guest activity against a shared album within the
// reporting window, for the owner's audit dashboard.
type ViewEventStats struct {
	EventCounts      map[string]int64 `json:"event_counts"`
	UniqueVisitors   int64            `json:"unique_visitors"`
	TotalPhotoViews  int64            `json:"total_photo_views"`
	PasswordAttempts int64            `json:"password_attempts"`
}

// GetEventCountsByType returns per-event-type counts for an album since the given time.
func GetEventCountsByType(db *sql.DB, albumID uint, since time.Time) (map[string]int64, error) {
	queryBuilder := psql.Select("event_type", "COUNT(*)").
		From("album_view_events").
		Where(sq.Eq{"album_id": albumID}).
		Where(sq.GtOrEq{"occurred_at": since}).
		GroupBy("event_type")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for GetEventCountsByType: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute GetEventCountsByType query: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count row: %w", err)
		}
		counts[eventType] = count
	}
	return counts, rows.Err()
}

// CountUniqueVisitors returns the number of distinct source IPs seen for an album since the given time.
func CountUniqueVisitors(db *sql.DB, albumID uint, since time.Time) (int64, error) {
	queryBuilder := psql.Select("COUNT(DISTINCT ip_address)").
		From("album_view_events").
		Where(sq.Eq{"album_id": albumID}).
		Where(sq.GtOrEq{"occurred_at": since})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CountUniqueVisitors: %w", err)
	}

	var count int64
	if err := db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to execute CountUniqueVisitors query: %w", err)
	}
	return count, nil
}

// CountEventsOfTypes returns the number of events matching any of the given types
// for an album since the given time.
func CountEventsOfTypes(db *sql.DB, albumID uint, since time.Time, eventTypes ...string) (int64, error) {
	queryBuilder := psql.Select("COUNT(*)").
		From("album_view_events").
		Where(sq.Eq{"album_id": albumID, "event_type": eventTypes}).
		Where(sq.GtOrEq{"occurred_at": since})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CountEventsOfTypes: %w", err)
	}

	var count int64
	if err := db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to execute CountEventsOfTypes query: %w", err)
	}
	return count, nil
}
