package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/pathutil"
	"github.com/filedash/filedash/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse files interactively",
		Long: `Open the full-screen file browser.

Tabs, folder navigation, starring, trash, downloads, uploads and folder
creation are all available from the keyboard; press ? for the key list.
Logs are written to the filedash log directory instead of the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := newFileLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := newApp(appOptions{Logger: log, RefreshOnChange: true})
			if err != nil {
				return err
			}

			dir := outDir
			if dir == "" {
				dir = a.cfg.DownloadDir
			}
			if dir == "" {
				dir = config.DefaultDownloadDir()
			}
			if dir, err = pathutil.ResolveAbsolutePath(dir); err != nil {
				return fmt.Errorf("failed to resolve download directory: %w", err)
			}

			m := tui.New(tui.Options{
				Listing:     a.listing,
				Uploads:     a.uploads,
				EventBus:    a.eventBus,
				Logger:      log,
				DownloadDir: dir,
				Context:     cmd.Context(),
			})
			log.Info().Str("user", a.session.UserID).Str("download_dir", dir).Msg("browser started")
			return tui.Run(m)
		},
	}

	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "Download directory (default: download_dir from config, then ~/Downloads)")
	return cmd
}

// newFileLogger sends TUI logs to a dated file so they do not tear the screen.
func newFileLogger() (*logging.Logger, func(), error) {
	if err := config.EnsureLogDirectory(); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(config.LogDirectory(), fmt.Sprintf("browse-%s.log", time.Now().Format("20060102")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log := logging.NewLogger("tui", nil)
	log.SetOutput(f)
	restore := logging.RedirectGlobal(f)
	return log, func() {
		restore()
		f.Close()
	}, nil
}
