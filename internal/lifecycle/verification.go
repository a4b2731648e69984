package lifecycle

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/reward"
	"github.com/nhle/volunteer-board/internal/scan"
)

// Result describes a successful verification.
type Result struct {
	Enrollment model.Enrollment `json:"enrollment"`

	// AlreadyVerified is set when the enrollment was completed before this call.
	AlreadyVerified bool `json:"already_verified"`

	// PointsCredited is zero unless this call credited the reward.
	PointsCredited int `json:"points_credited"`

	// CreditPending is set when the enrollment was completed but the point
	// ledger did not accept the credit. It is retried on the next
	// reconciliation pass.
	CreditPending bool `json:"credit_pending,omitempty"`
}

// VerificationStore is the persistence the verifier needs.
type VerificationStore interface {
	EnrollmentStore
	RewardStore
}

// Verifier checks attendance claims and completes enrollments.
type Verifier struct {
	store   VerificationStore
	events  EventLookup
	credits creditor
	decoder scan.Decoder
	announcer
	opts Options
}

// NewVerifier creates a Verifier. A nil decoder uses scan.TextDecoder.
func NewVerifier(
	s VerificationStore,
	events EventLookup,
	dispatcher reward.Dispatcher,
	decoder scan.Decoder,
	guard TriggerGuard,
	inbox Inbox,
	opts Options,
) *Verifier {
	opts = opts.withDefaults()
	if decoder == nil {
		decoder = scan.TextDecoder{}
	}
	logger := opts.Logger.With("component", "verifier")
	opts.Logger = logger
	return &Verifier{
		store:     s,
		events:    events,
		credits:   creditor{store: s, dispatcher: dispatcher, logger: logger},
		decoder:   decoder,
		announcer: announcer{guard: guard, inbox: inbox, logger: logger},
		opts:      opts,
	}
}

// VerifyByCode compares code case-sensitively with the enrollment's secret.
func (v *Verifier) VerifyByCode(ctx context.Context, userID, eventID, code string, now time.Time) (Result, error) {
	en, err := v.store.GetEnrollment(ctx, userID, eventID)
	if err != nil {
		return Result{}, err
	}
	return v.verify(ctx, *en, code, now)
}

// VerifyByScanPayload decodes payload and runs the code comparison. A
// payload naming a different event is a mismatch.
func (v *Verifier) VerifyByScanPayload(ctx context.Context, userID, eventID, payload string, now time.Time) (Result, error) {
	en, err := v.store.GetEnrollment(ctx, userID, eventID)
	if err != nil {
		return Result{}, err
	}

	claim, err := v.decoder.Decode(payload)
	if err != nil {
		if errors.Is(err, scan.ErrUnreadable) {
			return Result{}, errdef.NewVerificationMismatch("scan could not be read, try again")
		}
		return Result{}, fmt.Errorf("decoding scan payload: %w", err)
	}
	if claim.EventID != "" && claim.EventID != eventID {
		return Result{}, errdef.NewVerificationMismatch("this code belongs to a different activity")
	}
	return v.verify(ctx, *en, claim.Code, now)
}

func (v *Verifier) verify(ctx context.Context, en model.Enrollment, code string, now time.Time) (Result, error) {
	if !secretMatches(code, en.VerificationSecret) {
		v.opts.Logger.Info("verification mismatch", "enrollment_id", en.ID)
		return Result{}, errdef.NewVerificationMismatch("verification code does not match")
	}

	if en.Status == model.EnrollmentCompleted {
		return Result{Enrollment: en, AlreadyVerified: true}, nil
	}

	ev, ok := v.events.Get(en.EventID)
	points := 0
	reason := "Volunteer activity " + en.EventID
	if ok {
		points = ev.Points
		reason = "Volunteer: " + ev.Title
	} else {
		v.opts.Logger.Warn("crediting verification for event missing from catalog", "event_id", en.EventID)
	}

	// The credit is recorded with the completion and claimed by this call.
	claimedAt := now
	credit := model.RewardCredit{
		SourceID:     model.RewardSourceID(en.ID),
		EnrollmentID: en.ID,
		UserID:       en.UserID,
		Points:       points,
		Reason:       reason,
		CreatedAt:    now,
		ClaimedAt:    &claimedAt,
	}
	completed, err := v.store.CompleteEnrollment(ctx, en.ID, now, credit)
	if err != nil {
		return Result{}, fmt.Errorf("verifying %s: %w", en.EventID, err)
	}
	if !completed {
		// Lost the race to a concurrent verification, or the row is gone.
		current, err := v.store.GetEnrollmentByID(ctx, en.ID)
		if err != nil {
			return Result{}, err
		}
		if current.Status == model.EnrollmentCompleted {
			return Result{Enrollment: *current, AlreadyVerified: true}, nil
		}
		return Result{}, fmt.Errorf("verifying %s: enrollment is %s", en.EventID, current.Status)
	}

	// This call owns the applied/no_show -> completed edge. The completion
	// stands whether or not the dispatcher accepts the credit now.
	result := Result{PointsCredited: points}
	if err := v.credits.deliver(ctx, credit, now); err != nil {
		v.opts.Logger.Warn("reward credit deferred", "enrollment_id", en.ID, "error", err)
		result = Result{CreditPending: true}
	}

	verifiedAt := now
	en.Status = model.EnrollmentCompleted
	en.IsVerified = true
	en.VerifiedAt = &verifiedAt
	en.UpdatedAt = now

	title, body := render(model.KindVerified, ev, en, points, v.opts.Location)
	trigger := Trigger{
		EnrollmentID: en.ID,
		EventID:      en.EventID,
		Kind:         model.KindVerified,
		Title:        title,
		Body:         body,
		NavTarget:    NavTarget(en.EventID),
	}
	if _, err := v.announce(ctx, trigger, now); err != nil {
		v.opts.Logger.Error("announcing verification", "enrollment_id", en.ID, "error", err)
	}

	v.opts.Logger.Info("enrollment verified", "enrollment_id", en.ID, "event_id", en.EventID,
		"points", points, "credit_pending", result.CreditPending)
	result.Enrollment = en
	return result, nil
}

// SettleCredits retries rewards that were recorded at completion but not
// yet accepted by the dispatcher. It reports how many were delivered and
// how many failed again.
func (v *Verifier) SettleCredits(ctx context.Context, userID string, now time.Time) (settled, failed int, err error) {
	return v.credits.settle(ctx, userID, now)
}

// secretMatches compares in constant time. An empty code never matches.
func secretMatches(code, secret string) bool {
	if code == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(secret)) == 1
}
