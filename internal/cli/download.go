package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/constants"
	"github.com/filedash/filedash/internal/diskspace"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/pathutil"
	"github.com/filedash/filedash/internal/progress"
	"github.com/filedash/filedash/internal/state"
)

func newDownloadCmd() *cobra.Command {
	var (
		folderPath    []string
		outDir        string
		maxConcurrent int
	)

	cmd := &cobra.Command{
		Use:   "download <id> [id...]",
		Short: "Download files into a local directory",
		Long: `Download one or more files from a folder. Images are fetched at original
quality through the image delivery service; other files come from their
stored URL, which may be http(s), s3:// or az://.

Existing local files are never overwritten; a numbered copy is written
instead.

Examples:
  filedash download f2
  filedash download f2 f3 --outdir ./out
  filedash download c1 --folder f1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxConcurrent < constants.MinMaxConcurrent || maxConcurrent > constants.MaxMaxConcurrent {
				return fmt.Errorf("--max-concurrent must be between %d and %d, got %d",
					constants.MinMaxConcurrent, constants.MaxMaxConcurrent, maxConcurrent)
			}

			a, err := newApp(appOptions{})
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
			dir, err = pathutil.ResolveAbsolutePath(dir)
			if err != nil {
				return fmt.Errorf("failed to resolve output directory: %w", err)
			}

			if err := a.openFolder(cmd.Context(), folderPath); err != nil {
				return err
			}

			entries := make([]models.FileEntry, 0, len(args))
			for _, id := range args {
				e, ok := a.listing.Entry(id)
				if !ok {
					return fmt.Errorf("%s: %w (use --folder to select its parent)", id, state.ErrNotFound)
				}
				if !state.AvailableActions(e).Download {
					return fmt.Errorf("%s cannot be downloaded (folders and trashed files are excluded)", e.Name)
				}
				entries = append(entries, e)
			}

			failed, lowSpace := downloadAll(cmd.Context(), a.listing, entries, dir, maxConcurrent, progress.NewDownloadUI(len(entries)))
			if lowSpace {
				return fmt.Errorf("%d of %d downloads failed: not enough free space in %s", failed, len(entries), dir)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", failed, len(entries))
			}
			return nil
		},
	}

	addFolderFlag(cmd, &folderPath)
	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "Output directory (default: download_dir from config, then ~/Downloads)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", constants.DefaultMaxConcurrent,
		fmt.Sprintf("Maximum concurrent downloads (%d-%d)", constants.MinMaxConcurrent, constants.MaxMaxConcurrent))
	return cmd
}

// downloadAll runs the downloads with at most limit in flight. It returns
// the number that failed and whether any failed for lack of disk space.
func downloadAll(ctx context.Context, l *state.Listing, entries []models.FileEntry, dir string, limit int, ui *progress.DownloadUI) (int, bool) {
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var lowSpace atomic.Bool

	for i, e := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, e models.FileEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			var bar *progress.DownloadFileBar
			saver := &state.DirSaver{
				Dir: dir,
				Wrap: func(r io.Reader, entry models.FileEntry, size int64) io.Reader {
					bar = ui.AddFileBar(index, entry.ID, entry.Name, size)
					return bar.ProxyReader(r)
				},
			}

			path, err := l.Download(ctx, e.ID, saver)
			if diskspace.IsInsufficientSpaceError(err) {
				lowSpace.Store(true)
			}
			if bar == nil {
				bar = ui.AddFileBar(index, e.ID, e.Name, -1)
			}
			bar.Complete(path, err)
		}(i+1, e)
	}

	wg.Wait()
	ui.Wait()
	return ui.Failed(), lowSpace.Load()
}
