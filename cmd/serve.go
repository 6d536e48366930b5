package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/guestsnap/guestsnap/pkg/cfg"
	"github.com/guestsnap/guestsnap/pkg/gallery"
	infrahttp "github.com/guestsnap/guestsnap/pkg/infra/http"
	"github.com/guestsnap/guestsnap/pkg/logging"
	"github.com/guestsnap/guestsnap/pkg/upload"
)

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 2).
	BorderForeground(lipgloss.Color("63"))

// NewServeCommand returns the command that runs the kiosk server.
func NewServeCommand(fs afero.Fs, ctx context.Context, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the kiosk web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cfg.Load(fs)
			if err != nil {
				return err
			}

			ledger, err := gallery.OpenLedger(settings.GalleryDB)
			if err != nil {
				return err
			}
			defer ledger.Close()

			service := upload.NewService(fs, upload.Options{
				UploadRoot:    settings.UploadRoot,
				ScratchDir:    settings.ScratchDir,
				ChunkSize:     settings.ChunkSizeBytes(),
				MaxFileSize:   settings.MaxFileSizeBytes(),
				StaleWindow:   settings.StaleWindow,
				EvictInterval: settings.EvictInterval,
			}, logger, nil)

			g := gallery.New(fs, settings.UploadRoot, ledger, logger)
			server := infrahttp.NewServer(fs, settings, service, g, logger)

			guestURL := settings.PublicURL
			if guestURL == "" {
				guestURL = fmt.Sprintf("http://%s/", settings.Addr())
			}
			fmt.Fprintln(cmd.OutOrStdout(), bannerStyle.Render(fmt.Sprintf(
				"guestsnap kiosk\n\nguests upload at  %s\ngallery lives at  %sgallery", guestURL, guestURL)))

			return server.Run(ctx)
		},
	}
}
