package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rollcall/internal/store"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo members, events and attendance",
		Long: `Seed inserts five members and five events dated around today, with
attendance for the past events. Members whose email already exists are
skipped, so running it twice is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, e *env) error {
				res, err := store.Seed(ctx, e.store, e.service.Now())
				if err != nil {
					return userError(fmt.Errorf("seed: %w", err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d members, %d events, %d attendance records\n",
					res.Members, res.Events, res.Attendance)
				return nil
			})
		},
	}
}
