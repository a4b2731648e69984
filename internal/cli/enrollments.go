package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/model"
)

func newApplyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <eventID>",
		Short: "Apply to an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			en, err := rt.svc.ApplyToActivity(cmd.Context(), args[0], rt.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied to %s. Cancel by %s.\n",
				en.EventID, formatTime(en.CancellationDeadline, rt.loc))
			return nil
		},
	}
}

func newCancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <eventID>",
		Short: "Withdraw an application before its cancellation deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.svc.CancelEnrollment(cmd.Context(), args[0], rt.now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled enrollment in %s.\n", args[0])
			return nil
		},
	}
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var (
		code       string
		payload    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "verify <eventID>",
		Short: "Record attendance with a code or a scanned payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			var res lifecycle.Result
			if payload != "" {
				res, err = rt.svc.VerifyByScanPayload(cmd.Context(), args[0], payload, rt.now())
			} else {
				res, err = rt.svc.VerifyByCode(cmd.Context(), args[0], code, rt.now())
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd, res)
			}
			if res.AlreadyVerified {
				fmt.Fprintf(cmd.OutOrStdout(), "Attendance for %s was already verified.\n", args[0])
				return nil
			}
			if res.CreditPending {
				fmt.Fprintf(cmd.OutOrStdout(), "Attendance verified for %s, points will be credited on the next sync.\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attendance verified for %s, %d points credited.\n", args[0], res.PointsCredited)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Verification code announced at the activity")
	cmd.Flags().StringVar(&payload, "payload", "", "Raw payload read from the activity's QR code")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagsOneRequired("code", "payload")
	cmd.MarkFlagsMutuallyExclusive("code", "payload")
	return cmd
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reminder and status pass over your enrollments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.svc.RunReconciliation(cmd.Context(), rt.now())
			if err != nil {
				return err
			}
			if jsonOutput {
				return renderJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Evaluated %d enrollments: %d transitions, %d reminders, %d skipped, %d failures.\n",
				report.Evaluated, len(report.Transitions), len(report.Fired), len(report.Skipped), report.Failures)
			if report.Credited > 0 {
				fmt.Fprintf(out, "Credited %d pending rewards.\n", report.Credited)
			}
			for _, tr := range report.Transitions {
				fmt.Fprintf(out, "  %s: now %s\n", tr.EventID, tr.To)
			}
			for _, f := range report.Fired {
				fmt.Fprintf(out, "  %s: %s\n", f.EventID, f.Kind)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newEnrollmentsCmd(opts *rootOptions) *cobra.Command {
	var (
		status     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "List your enrollments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *model.EnrollmentStatus
			switch s := model.EnrollmentStatus(status); s {
			case "":
			case model.EnrollmentApplied, model.EnrollmentCompleted, model.EnrollmentNoShow:
				filter = &s
			default:
				return fmt.Errorf("unknown status %q (want applied, completed or no_show)", status)
			}

			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.reconcile(cmd.Context())
			enrollments, err := rt.svc.MyEnrollments(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return renderJSON(cmd, enrollments)
			}

			rows := make([][]string, 0, len(enrollments))
			for _, en := range enrollments {
				title := "(no longer listed)"
				if ev, ok := rt.svc.GetActivity(en.EventID); ok {
					title = ev.Title
				}
				verified := "no"
				if en.IsVerified {
					verified = "yes"
				}
				rows = append(rows, []string{
					en.EventID,
					title,
					string(en.Status),
					verified,
					formatTime(en.AppliedAt, rt.loc),
				})
			}
			renderTable(cmd, "No enrollments.",
				[]string{"EVENT", "TITLE", "STATUS", "VERIFIED", "APPLIED"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only enrollments in this status (applied, completed, no_show)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
