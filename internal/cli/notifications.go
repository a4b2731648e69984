package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
)

func newNotificationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Read and manage your reminder inbox",
	}
	cmd.AddCommand(newNotificationsListCmd(opts))
	cmd.AddCommand(newNotificationsReadCmd(opts))
	cmd.AddCommand(newNotificationsReadAllCmd(opts))
	cmd.AddCommand(newNotificationsDeleteCmd(opts))
	cmd.AddCommand(newNotificationsClearCmd(opts))
	return cmd
}

func newNotificationsListCmd(opts *rootOptions) *cobra.Command {
	var (
		unread     bool
		kinds      []string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := notify.Filter{Limit: limit}
			for _, k := range kinds {
				kind := model.NotificationKind(k)
				if !slices.Contains(model.NotificationKinds, kind) {
					return fmt.Errorf("unknown notification kind %q", k)
				}
				filter.Kinds = append(filter.Kinds, kind)
			}
			if unread {
				read := false
				filter.Read = &read
			}

			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.reconcile(cmd.Context())
			items, err := rt.svc.ListNotifications(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return renderJSON(cmd, items)
			}

			rows := make([][]string, 0, len(items))
			for _, n := range items {
				mark := " "
				if !n.Read {
					mark = "*"
				}
				rows = append(rows, []string{
					mark,
					n.ID,
					string(n.Kind),
					n.Title,
					formatTime(n.CreatedAt, rt.loc),
				})
			}
			renderTable(cmd, "Inbox is empty.",
				[]string{"", "ID", "KIND", "TITLE", "CREATED"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only these kinds (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of notifications")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newNotificationsReadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.svc.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read.\n", args[0])
			return nil
		},
	}
}

func newNotificationsReadAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.svc.MarkAllRead(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All notifications marked as read.")
			return nil
		},
	}
}

func newNotificationsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.svc.DeleteNotification(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}
}

func newNotificationsClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.svc.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Inbox cleared.")
			return nil
		},
	}
}
