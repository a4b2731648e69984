package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/credential"
)

func newFeedTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed-token",
		Short: "Manage the bearer token for the catalog feed",
	}
	cmd.AddCommand(newFeedTokenSetCmd())
	cmd.AddCommand(newFeedTokenClearCmd())
	return cmd
}

func newFeedTokenSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Store the feed token in the system keyring",
		Long:  "Store the feed token in the system keyring. Without an argument the token is read from standard input.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("token must not be empty")
			}

			vault, err := openVault()
			if err != nil {
				return err
			}
			if err := vault.Set(credential.FeedTokenKey, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Feed token saved.")
			return nil
		},
	}
}

func newFeedTokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the feed token from the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, err := openVault()
			if err != nil {
				return err
			}
			if err := vault.Delete(credential.FeedTokenKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Feed token removed.")
			return nil
		},
	}
}
