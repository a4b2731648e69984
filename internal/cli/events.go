package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/model"
)

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Browse the activity catalog",
	}
	cmd.AddCommand(newEventsListCmd(opts))
	cmd.AddCommand(newEventsShowCmd(opts))
	return cmd
}

func newEventsListCmd(opts *rootOptions) *cobra.Command {
	var (
		filter     catalog.Filter
		from       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if from != "" {
				if filter.From, err = parseTime(from, rt.loc); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
			}

			events := rt.svc.ListActivities(filter)
			for i := range events {
				events[i] = publicEvent(events[i])
			}
			if jsonOutput {
				return renderJSON(cmd, events)
			}

			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{
					e.ID,
					e.Title,
					e.Region,
					formatTime(e.StartsAt, rt.loc),
					strconv.Itoa(e.Points),
					capacity(e),
					string(e.Status),
				})
			}
			renderTable(cmd, "No activities found.",
				[]string{"ID", "TITLE", "REGION", "STARTS", "POINTS", "SEATS", "STATUS"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Query, "query", "", "Match title or location")
	cmd.Flags().StringVar(&filter.Region, "region", "", "Only activities in this region")
	cmd.Flags().StringVar(&filter.Organizer, "organizer", "", "Only activities by this organizer")
	cmd.Flags().StringVar(&from, "from", "", "Only activities starting on or after this day")
	cmd.Flags().BoolVar(&filter.RecruitingOnly, "recruiting", false, "Only activities still recruiting")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newEventsShowCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <eventID>",
		Short: "Show one activity and your enrollment in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			ev, ok := rt.svc.GetActivity(args[0])
			if !ok {
				return errdef.NewNotFound("event %s not found", args[0])
			}
			ev = publicEvent(ev)
			rt.reconcile(cmd.Context())
			en, err := rt.svc.MyEnrollment(cmd.Context(), ev.ID)
			if err != nil && !errdef.IsNotFound(err) {
				return err
			}
			var sent []model.NotificationKind
			if en != nil {
				if sent, err = rt.svc.SentReminders(cmd.Context(), ev.ID); err != nil {
					return err
				}
			}

			if jsonOutput {
				return renderJSON(cmd, struct {
					Event      model.VolunteerEvent     `json:"event"`
					Enrollment *model.Enrollment        `json:"enrollment,omitempty"`
					Sent       []model.NotificationKind `json:"notifications_sent,omitempty"`
				}{ev, en, sent})
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%s  %s\n", ev.ID, ev.Title)
			fmt.Fprintf(&b, "Organizer:     %s\n", ev.Organizer)
			fmt.Fprintf(&b, "Where:         %s (%s)\n", ev.Location, ev.Region)
			fmt.Fprintf(&b, "Starts:        %s\n", formatTime(ev.StartsAt, rt.loc))
			fmt.Fprintf(&b, "Apply by:      %s\n", formatTime(ev.ApplicationDeadline, rt.loc))
			fmt.Fprintf(&b, "Cancel by:     %s\n", formatTime(ev.CancellationDeadline, rt.loc))
			fmt.Fprintf(&b, "Points:        %d\n", ev.Points)
			fmt.Fprintf(&b, "Seats:         %s\n", capacity(ev))
			fmt.Fprintf(&b, "Status:        %s\n", ev.Status)
			if ev.PenaltyPolicy != "" {
				fmt.Fprintf(&b, "Penalty:       %s\n", ev.PenaltyPolicy)
			}
			if ev.Description != "" {
				fmt.Fprintf(&b, "\n%s\n", ev.Description)
			}
			if en != nil {
				fmt.Fprintf(&b, "\nYour enrollment: %s", en.Status)
				if en.IsVerified {
					b.WriteString(" (verified)")
				}
				b.WriteString("\n")
				if len(sent) > 0 {
					kinds := make([]string, len(sent))
					for i, k := range sent {
						kinds[i] = string(k)
					}
					fmt.Fprintf(&b, "Notifications sent: %s\n", strings.Join(kinds, ", "))
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// publicEvent strips the attendance secret before an event is printed.
func publicEvent(e model.VolunteerEvent) model.VolunteerEvent {
	e.VerificationSecret = ""
	return e
}

func capacity(e model.VolunteerEvent) string {
	if e.MaxParticipants <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", e.CurrentParticipants, e.MaxParticipants)
}
