package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/model"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	now        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "volunteer",
		Short: "Track volunteer activities, enrollments and reminders",
		Long: "volunteer keeps a local ledger of the volunteer activities you applied to, " +
			"reminds you about deadlines and start days, and records verified attendance.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	cmd.PersistentFlags().StringVar(&opts.now, "now", "", "Override the current time (RFC3339 or 2006-01-02T15:04)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newTUICmd(opts))
	cmd.AddCommand(newEventsCmd(opts))
	cmd.AddCommand(newApplyCmd(opts))
	cmd.AddCommand(newCancelCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))
	cmd.AddCommand(newReconcileCmd(opts))
	cmd.AddCommand(newEnrollmentsCmd(opts))
	cmd.AddCommand(newNotificationsCmd(opts))
	cmd.AddCommand(newPointsCmd(opts))
	cmd.AddCommand(newFeedTokenCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "volunteer %s (%s)\n", version, commit)
		},
	}
}

// clock returns the time source for a command. A --now override pins every
// call to the same instant, interpreted in loc when it carries no offset.
func (o *rootOptions) clock(loc *time.Location) (func() time.Time, error) {
	if o.now == "" {
		return time.Now, nil
	}
	t, err := parseTime(o.now, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid --now: %w", err)
	}
	return func() time.Time { return t }, nil
}

// parseTime accepts RFC3339, a minute-precision local time or a bare date.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", s)
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
