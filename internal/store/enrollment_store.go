package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/model"
)

const enrollmentColumns = `id, user_id, event_id, status, is_verified,
	cancellation_deadline, verification_secret,
	applied_at, verified_at, updated_at`

// CreateEnrollment inserts a new enrollment. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateEnrollment(ctx context.Context, e model.Enrollment) error {
	if e.UserID == "" || e.EventID == "" {
		return fmt.Errorf("enrollment user and event must not be empty")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = model.EnrollmentApplied
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (`+enrollmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.EventID, string(e.Status), boolToInt(e.IsVerified),
		e.CancellationDeadline.UTC(), e.VerificationSecret,
		e.AppliedAt.UTC(), utcPtr(e.VerifiedAt), e.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating enrollment for event %s: %w", e.EventID, ErrDuplicateEnrollment)
		}
		return fmt.Errorf("creating enrollment: %w", err)
	}
	return nil
}

// GetEnrollment retrieves the enrollment of userID for eventID.
func (s *SQLiteStore) GetEnrollment(
	ctx context.Context,
	userID, eventID string,
) (*model.Enrollment, error) {
	var e model.Enrollment
	err := s.db.GetContext(ctx, &e,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE user_id = ? AND event_id = ?",
		userID, eventID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errdef.NewNotFound("no enrollment for event %s", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting enrollment for event %s: %w", eventID, err)
	}
	return &e, nil
}

// GetEnrollmentByID retrieves a single enrollment by ID.
func (s *SQLiteStore) GetEnrollmentByID(
	ctx context.Context,
	id string,
) (*model.Enrollment, error) {
	var e model.Enrollment
	err := s.db.GetContext(ctx, &e,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE id = ?", id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errdef.NewNotFound("enrollment %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting enrollment %s: %w", id, err)
	}
	return &e, nil
}

// GetEnrollments retrieves enrollments matching the filter, oldest application first.
func (s *SQLiteStore) GetEnrollments(
	ctx context.Context,
	filter EnrollmentFilter,
) ([]model.Enrollment, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.EventID != nil {
		conditions = append(conditions, "event_id = ?")
		args = append(args, *filter.EventID)
	}

	query := "SELECT " + enrollmentColumns + " FROM enrollments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY applied_at ASC, id ASC"

	var enrollments []model.Enrollment
	if err := s.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("querying enrollments: %w", err)
	}
	return enrollments, nil
}

// DeleteAppliedEnrollment hard-deletes an enrollment that is still applied.
func (s *SQLiteStore) DeleteAppliedEnrollment(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM enrollments WHERE id = ? AND status = ?",
		id, string(model.EnrollmentApplied),
	)
	if err != nil {
		return false, fmt.Errorf("deleting enrollment %s: %w", id, err)
	}
	return changed(result)
}

// MarkEnrollmentNoShow moves an applied enrollment to no_show. Completed
// enrollments are never downgraded.
func (s *SQLiteStore) MarkEnrollmentNoShow(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE enrollments SET status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND is_verified = 0`,
		string(model.EnrollmentNoShow), now.UTC(),
		id, string(model.EnrollmentApplied),
	)
	if err != nil {
		return false, fmt.Errorf("marking enrollment %s no-show: %w", id, err)
	}
	return changed(result)
}

// CompleteEnrollment moves an applied or no_show enrollment to completed
// and records the reward owed for it in the same transaction. It reports
// true only for the call that performed the transition; other calls leave
// both tables untouched.
func (s *SQLiteStore) CompleteEnrollment(ctx context.Context, id string, now time.Time, credit model.RewardCredit) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE enrollments
		SET status = ?, is_verified = 1, verified_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(model.EnrollmentCompleted), now.UTC(), now.UTC(),
		id, string(model.EnrollmentApplied), string(model.EnrollmentNoShow),
	)
	if err != nil {
		return false, fmt.Errorf("completing enrollment %s: %w", id, err)
	}
	completed, err := changed(result)
	if err != nil || !completed {
		return false, err
	}

	if credit.CreatedAt.IsZero() {
		credit.CreatedAt = now
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reward_credits (source_id, enrollment_id, user_id, points, reason, created_at, claimed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		credit.SourceID, id, credit.UserID, credit.Points, credit.Reason,
		credit.CreatedAt.UTC(), utcPtr(credit.ClaimedAt),
	)
	if err != nil {
		return false, fmt.Errorf("recording reward for enrollment %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing completion of %s: %w", id, err)
	}
	return true, nil
}

func changed(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return rows > 0, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
