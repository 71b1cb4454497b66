package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/state"
)

func addFolderFlag(cmd *cobra.Command, folderPath *[]string) {
	cmd.Flags().StringSliceVarP(folderPath, "folder", "f", nil,
		"Folder to work in, given as the chain of folder ids from root (repeat or comma-separate)")
}

// entryIn opens folderPath and returns the entry id from it.
func entryIn(a *app, cmd *cobra.Command, folderPath []string, id string) (models.FileEntry, error) {
	if err := a.openFolder(cmd.Context(), folderPath); err != nil {
		return models.FileEntry{}, err
	}
	e, ok := a.listing.Entry(id)
	if !ok {
		return models.FileEntry{}, fmt.Errorf("%s: %w (use --folder to select its parent)", id, state.ErrNotFound)
	}
	return e, nil
}

func newLsCmd() *cobra.Command {
	var (
		folderPath []string
		tabName    string
		modeName   string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List files in a folder",
		Long: `List the entries of a folder for the signed-in user.

The tab bar shows how many entries each view holds. Trashed entries only
appear in the trash tab.

Examples:
  filedash ls
  filedash ls --tab starred
  filedash ls --folder f1 --folder f7 --only images
  filedash ls --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := state.ParseTab(tabName)
			if err != nil {
				return err
			}
			mode, err := state.ParseMode(modeName)
			if err != nil {
				return err
			}

			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			if err := a.openFolder(cmd.Context(), folderPath); err != nil {
				return err
			}
			a.listing.SetTab(tab)
			a.listing.SetMode(mode)

			snap := a.listing.Snapshot()
			if outputJSON {
				return renderJSON(cmd.OutOrStdout(), snap)
			}
			renderListing(cmd.OutOrStdout(), snap, time.Now())
			return nil
		},
	}

	addFolderFlag(cmd, &folderPath)
	cmd.Flags().StringVarP(&tabName, "tab", "t", "all", "View: all, starred or trash")
	cmd.Flags().StringVar(&modeName, "only", "all", "Filter: all, folders or images")
	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")
	return cmd
}

func newStarCmd() *cobra.Command {
	var folderPath []string

	cmd := &cobra.Command{
		Use:   "star <id>",
		Short: "Star or unstar a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			e, err := entryIn(a, cmd, folderPath, args[0])
			if err != nil {
				return err
			}
			if !state.AvailableActions(e).Star {
				return fmt.Errorf("%s is in the trash; restore it first", e.Name)
			}
			if err := a.listing.ToggleStar(cmd.Context(), e.ID); err != nil {
				return err
			}
			if after, _ := a.listing.Entry(e.ID); after.IsStarred {
				fmt.Fprintf(cmd.OutOrStdout(), "Added to Starred: %s\n", e.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed from Starred: %s\n", e.Name)
			}
			return nil
		},
	}
	addFolderFlag(cmd, &folderPath)
	return cmd
}

func newTrashCmd() *cobra.Command {
	var folderPath []string

	cmd := &cobra.Command{
		Use:   "trash <id>",
		Short: "Move a file to the trash, or restore it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			e, err := entryIn(a, cmd, folderPath, args[0])
			if err != nil {
				return err
			}
			if err := a.listing.ToggleTrash(cmd.Context(), e.ID); err != nil {
				return err
			}
			if after, _ := a.listing.Entry(e.ID); after.IsTrash {
				fmt.Fprintf(cmd.OutOrStdout(), "Moved to Trash: %s\n", e.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Restored from Trash: %s\n", e.Name)
			}
			return nil
		},
	}
	addFolderFlag(cmd, &folderPath)
	return cmd
}

func newRmCmd() *cobra.Command {
	var (
		folderPath []string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Permanently delete a trashed file",
		Long: `Permanently delete a file. Only entries already in the trash can be
deleted forever; use 'filedash trash <id>' first.

You are asked to confirm unless --yes is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			e, err := entryIn(a, cmd, folderPath, args[0])
			if err != nil {
				return err
			}
			if !state.AvailableActions(e).DeleteForever {
				return fmt.Errorf("%s is not in the trash; run 'filedash trash %s' first", e.Name, e.ID)
			}

			err = a.listing.DeleteForever(cmd.Context(), e.ID, confirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), yes))
			if errors.Is(err, state.ErrNotConfirmed) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "File Permanently Deleted: %s\n", e.Name)
			return nil
		},
	}
	addFolderFlag(cmd, &folderPath)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newEmptyTrashCmd() *cobra.Command {
	var (
		folderPath []string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "empty-trash",
		Short: "Permanently delete everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			if err := a.openFolder(cmd.Context(), folderPath); err != nil {
				return err
			}
			count := a.listing.Counts().Trash

			err = a.listing.EmptyTrash(cmd.Context(), confirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), yes))
			if errors.Is(err, state.ErrNotConfirmed) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trash Emptied: %d items deleted\n", count)
			return nil
		},
	}
	addFolderFlag(cmd, &folderPath)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var folderPath []string

	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Print the full-size preview URL of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			e, err := entryIn(a, cmd, folderPath, args[0])
			if err != nil {
				return err
			}
			url, err := a.listing.PreviewURL(e)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	addFolderFlag(cmd, &folderPath)
	return cmd
}

func newThumbCmd() *cobra.Command {
	var folderPath []string

	cmd := &cobra.Command{
		Use:   "thumb <id>",
		Short: "Print the thumbnail URL of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			e, err := entryIn(a, cmd, folderPath, args[0])
			if err != nil {
				return err
			}
			url, err := a.listing.ThumbnailURL(e)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	addFolderFlag(cmd, &folderPath)
	return cmd
}
