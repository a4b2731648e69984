package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/model"
)

func newPointsCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "points",
		Short: "Show your point balance and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.reconcile(cmd.Context())
			balance, err := rt.svc.PointBalance(cmd.Context())
			if err != nil {
				return err
			}
			history, err := rt.svc.PointHistory(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd, struct {
					Balance int                `json:"balance"`
					History []model.PointEntry `json:"history"`
				}{balance, history})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %d points\n", balance)
			rows := make([][]string, 0, len(history))
			for _, p := range history {
				rows = append(rows, []string{
					formatTime(p.CreatedAt, rt.loc),
					strconv.Itoa(p.Points),
					p.Reason,
				})
			}
			renderTable(cmd, "No points earned yet.", []string{"WHEN", "POINTS", "REASON"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
