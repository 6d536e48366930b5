package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/guestsnap/guestsnap/pkg/logging"
	"github.com/guestsnap/guestsnap/pkg/qr"
)

var okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

// NewQRCommand returns the command that renders the kiosk QR code as a PNG
// and as a 3D-printable STL plate for the welcome table.
func NewQRCommand(fs afero.Fs, logger *logging.Logger) *cobra.Command {
	var (
		url     string
		pngOut  string
		stlOut  string
		pngSize int
	)

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Generate the kiosk QR code (PNG and printable STL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().
						Title("URL to encode").
						Description("The address guests open after scanning, e.g. http://kiosk.local:8080/").
						Value(&url),
				))
				if err := form.Run(); err != nil {
					return err
				}
			}
			if url == "" {
				return errors.New("a URL is required")
			}

			png, err := qr.PNG(url, pngSize)
			if err != nil {
				return err
			}
			if err := afero.WriteFile(fs, pngOut, png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", pngOut, err)
			}
			logger.Info("QR image written", "file", pngOut)

			matrix, err := qr.Matrix(url)
			if err != nil {
				return err
			}
			stl, err := fs.Create(stlOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", stlOut, err)
			}
			defer stl.Close()
			if err := qr.WriteSTL(stl, matrix, qr.DefaultSTLOptions()); err != nil {
				return fmt.Errorf("failed to write %s: %w", stlOut, err)
			}
			logger.Info("QR plate written", "file", stlOut)

			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(
				fmt.Sprintf("Saved %s and %s. Print the plate, scan the code.", pngOut, stlOut)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "URL to encode (prompts when omitted)")
	cmd.Flags().StringVar(&pngOut, "png", "qr_code.png", "output PNG file")
	cmd.Flags().StringVar(&stlOut, "stl", "qr_code.stl", "output STL file")
	cmd.Flags().IntVar(&pngSize, "size", 512, "PNG size in pixels")

	return cmd
}
