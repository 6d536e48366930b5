package cmd

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/guestsnap/guestsnap/pkg/logging"
	"github.com/guestsnap/guestsnap/pkg/version"
)

// NewRootCommand returns the root command with all subcommands attached
func NewRootCommand(fs afero.Fs, ctx context.Context, logger *logging.Logger) *cobra.Command {
	cobra.EnableCommandSorting = false
	rootCmd := &cobra.Command{
		Use:   "guestsnap",
		Short: "QR-driven photo kiosk for events.",
		Long: `Guestsnap runs a small web kiosk for weddings and parties: guests scan a
QR code, upload photos and videos from their phones into their own folder,
and everything shows up in a live gallery. Large files travel as resumable
chunks, so flaky event wifi only costs a retry, not the whole upload.`,
		Version: version.String(),
	}
	rootCmd.AddCommand(NewServeCommand(fs, ctx, logger))
	rootCmd.AddCommand(NewQRCommand(fs, logger))

	return rootCmd
}
