package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/ui/detail"
	"github.com/nhle/volunteer-board/internal/ui/verifyform"
)

// actionTimeout bounds a single user command against the store.
const actionTimeout = 10 * time.Second

// actionResultMsg reports the outcome of apply, cancel or verify.
type actionResultMsg struct {
	eventID string
	text    string
}

// loadDetail returns a command that reads an activity and the user's
// enrollment in it.
func (m Model) loadDetail(eventID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		msg := detail.DetailLoadedMsg{EventID: eventID}
		if ev, ok := svc.GetActivity(eventID); ok {
			msg.Event = &ev
		}
		if en, err := svc.MyEnrollment(ctx, eventID); err == nil {
			msg.Enrollment = en
		}
		return msg
	}
}

func (m Model) apply(eventID string) tea.Cmd {
	svc, now := m.svc, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		if _, err := svc.ApplyToActivity(ctx, eventID, now()); err != nil {
			return actionResultMsg{eventID: eventID, text: describeError("Could not apply", err)}
		}
		return actionResultMsg{eventID: eventID, text: "Application received."}
	}
}

func (m Model) cancel(eventID string) tea.Cmd {
	svc, now := m.svc, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		if err := svc.CancelEnrollment(ctx, eventID, now()); err != nil {
			return actionResultMsg{eventID: eventID, text: describeError("Could not cancel", err)}
		}
		return actionResultMsg{eventID: eventID, text: "Enrollment cancelled."}
	}
}

func (m Model) verify(eventID, mode, value string) tea.Cmd {
	svc, now := m.svc, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		var res lifecycle.Result
		var err error
		if mode == verifyform.ModeScan {
			res, err = svc.VerifyByScanPayload(ctx, eventID, value, now())
		} else {
			res, err = svc.VerifyByCode(ctx, eventID, value, now())
		}

		switch {
		case err != nil:
			return actionResultMsg{eventID: eventID, text: describeError("Verification failed", err)}
		case res.AlreadyVerified:
			return actionResultMsg{eventID: eventID, text: "Attendance was already verified."}
		case res.CreditPending:
			return actionResultMsg{eventID: eventID, text: "Attendance verified, points will be credited on the next sync."}
		default:
			return actionResultMsg{eventID: eventID, text: fmt.Sprintf("Attendance verified, %d points credited.", res.PointsCredited)}
		}
	}
}

// describeError turns an engine error into a status line.
func describeError(prefix string, err error) string {
	switch {
	case errdef.IsVerificationMismatch(err), errdef.IsInvalidState(err):
		return prefix + ": " + err.Error()
	case errdef.IsNotFound(err):
		return prefix + ": not found"
	default:
		return fmt.Sprintf("%s: %v", prefix, err)
	}
}
