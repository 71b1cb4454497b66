package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filedash/filedash/internal/progress"
)

func newUploadCmd() *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file (5MB max)",
		Long: `Upload one local file into the root or into --folder.

Files larger than 5MB are rejected before anything is sent.

Examples:
  filedash upload report.pdf
  filedash upload cat.png --folder f1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{
				UploadProgress: func(name string) progress.Reporter {
					return progress.NewCLIProgressTo(cmd.ErrOrStderr())
				},
			})
			if err != nil {
				return err
			}

			if err := a.uploads.StagePath(args[0]); err != nil {
				return err
			}
			var parent *string
			if folderID != "" {
				parent = &folderID
			}

			created, err := a.uploads.Submit(cmd.Context(), parent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upload Successful: %s (id %s)\n", created.Name, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Target folder id (default: root)")
	return cmd
}

func newMkdirCmd() *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			var parent *string
			if folderID != "" {
				parent = &folderID
			}
			created, err := a.uploads.CreateFolder(cmd.Context(), args[0], parent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Folder Created: %s (id %s)\n", created.Name, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Parent folder id (default: root)")
	return cmd
}
