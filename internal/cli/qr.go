package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rollcall/internal/qr"
)

func newQRCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "qr <event-id>",
		Short: "Write an event's check-in QR code as PNG",
		Long: `QR renders the check-in code for an event. Links inside the code use
CHECKIN_BASE_URL and the image edge is CHECKIN_QR_SIZE pixels.

The file defaults to <Event-Name>-QR.png in the current directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, e *env) error {
				event, err := e.service.GetEvent(ctx, args[0])
				if err != nil {
					return userError(err)
				}

				png, err := qr.Encode(qr.NewPayload(event, e.cfg.Checkin.BaseURL), e.cfg.Checkin.QRSize)
				if err != nil {
					return err
				}

				path := out
				if path == "" {
					path = qr.Filename(event.Title)
				}
				if err := os.WriteFile(path, png, 0o644); err != nil {
					return fmt.Errorf("write qr: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <Event-Name>-QR.png)")
	return cmd
}
