package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/model"
)

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, kind, title, body, enrollment_id, nav_target, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind), n.Title, n.Body, n.EnrollmentID, n.NavTarget,
		boolToInt(n.Read), n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// GetNotifications retrieves notifications matching the filter, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	filter NotificationFilter,
) ([]model.Notification, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Kinds) > 0 {
		placeholders := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		conditions = append(conditions, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Read != nil {
		conditions = append(conditions, "read = ?")
		args = append(args, boolToInt(*filter.Read))
	}

	query := "SELECT id, kind, title, body, enrollment_id, nav_target, read, created_at FROM notifications"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	// rowid breaks ties between records created within the same clock tick.
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// CountUnreadNotifications returns the number of unread notifications.
func (s *SQLiteStore) CountUnreadNotifications(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE read = 0"); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id string,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errdef.NewNotFound("notification %s not found", id)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification as read and
// returns how many changed.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0")
	if err != nil {
		return 0, fmt.Errorf("marking all notifications as read: %w", err)
	}
	return result.RowsAffected()
}

// DeleteNotification removes a notification by ID.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errdef.NewNotFound("notification %s not found", id)
	}
	return nil
}

// ClearNotifications removes every notification and returns how many were deleted.
func (s *SQLiteStore) ClearNotifications(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notifications")
	if err != nil {
		return 0, fmt.Errorf("clearing notifications: %w", err)
	}
	return result.RowsAffected()
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		kind      string
		readInt   int
		createdAt time.Time
	)

	err := rows.Scan(
		&n.ID, &kind, &n.Title, &n.Body, &n.EnrollmentID, &n.NavTarget,
		&readInt, &createdAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Kind = model.NotificationKind(kind)
	n.Read = readInt != 0
	n.CreatedAt = createdAt

	return n, nil
}
