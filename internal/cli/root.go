// Package cli provides the command-line interface for filedash.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/filedash/filedash/internal/api"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/version"
)

var (
	// Global flags
	cfgFile    string
	token      string
	tokenFile  string
	apiBaseURL string
	userID     string
	verbose    bool
	debug      bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filedash",
		Short: "filedash - browse and manage your dashboard files from the terminal",
		Long: `filedash ` + version.Version + ` - Built: ` + version.BuildTime + `
Terminal client for the file dashboard: list folders, star and trash files,
upload, download, and browse everything interactively with 'filedash browse'.

Authentication:
  A bearer token is read from --token, --token-file, the config file,
  ~/.config/filedash/token or FILEDASH_TOKEN, in that order.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			switch {
			case verbose || debug:
				logging.SetGlobalLevel(zerolog.DebugLevel)
			default:
				logging.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (overrides all other sources)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Path to file containing the bearer token")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "Dashboard API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&userID, "user-id", "", "User id (defaults to the token subject)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for filedash.

QUICK TEST (current session only):
  bash:        source <(filedash completion bash)
  zsh:         source <(filedash completion zsh)
  fish:        filedash completion fish | source
  powershell:  filedash completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletion(out)
			}
		},
	}
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(rootContext)

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newStarCmd())
	rootCmd.AddCommand(newTrashCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newEmptyTrashCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newThumbCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newMkdirCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newVersionCmd())
	hintOnUnauthorized(rootCmd)
}

// hintOnUnauthorized wraps every RunE so a rejected bearer token tells the
// user how to fix it.
func hintOnUnauthorized(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		hintOnUnauthorized(c)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		var fe *api.FetchError
		if errors.As(err, &fe) && fe.Unauthorized() {
			return fmt.Errorf("%w (the server rejected the bearer token; run 'filedash config init' or pass --token)", err)
		}
		return err
	}
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context, cancelled on Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "filedash %s (built %s)\n", version.Version, version.BuildTime)
		},
	}
}
