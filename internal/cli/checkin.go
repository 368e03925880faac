package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <event-id> <member-id>",
		Short: "Record a member's attendance at an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, e *env) error {
				a, err := e.service.CheckIn(ctx, args[0], args[1])
				if err != nil {
					return userError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "checked in member %s at event %s (%s)\n",
					a.MemberID, a.EventID, a.CheckedInAt.Format("2006-01-02 15:04"))
				return nil
			})
		},
	}
}
