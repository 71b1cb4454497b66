package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/filedash/filedash/internal/auth"
	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage filedash configuration",
		Long: `Configuration management commands for filedash.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the API connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var (
		force     bool
		saveToken bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for filedash.

The configuration is saved to ~/.config/filedash/config.ini with owner-only
permissions. With --save-token the bearer token goes to a separate token file
instead of the config file.

Use --force to overwrite an existing configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			out := cmd.OutOrStdout()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := runConfigWizard(bufio.NewReader(cmd.InOrStdin()), out)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			tokenPath := ""
			if saveToken && cfg.Token != "" {
				tokenPath = config.DefaultTokenPath()
				if err := config.WriteTokenFile(tokenPath, cfg.Token); err != nil {
					return err
				}
				cfg.Token = ""
			}

			if err := config.Save(cfg, path); err != nil {
				return err
			}
			GetLogger().Info().Str("path", path).Msg("configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			if tokenPath != "" {
				fmt.Fprintf(out, "✓ Token saved to: %s\n", tokenPath)
			}
			fmt.Fprintln(out, "Test your configuration with: filedash config test")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&saveToken, "save-token", false, "Store the token in a separate token file")
	return cmd
}

// runConfigWizard asks for each setting, offering the defaults.
func runConfigWizard(r *bufio.Reader, out io.Writer) (*config.Config, error) {
	cfg := config.NewConfig()

	fmt.Fprintln(out, "filedash Configuration Setup")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	var err error
	ask := func(label, def string) string {
		if err != nil {
			return def
		}
		var v string
		v, err = promptLine(r, out, label, def)
		return v
	}

	cfg.APIBaseURL = ask("API base URL", cfg.APIBaseURL)
	cfg.TransformURL = ask("Image delivery URL (transform_url)", "")
	if err != nil {
		return nil, err
	}
	if cfg.Token, err = promptSecret(r, out, "Bearer token (leave empty to use FILEDASH_TOKEN)"); err != nil {
		return nil, err
	}
	cfg.UserID = ask("User id (empty = token subject)", "")
	cfg.DownloadDir = ask("Download directory", config.DefaultDownloadDir())

	fmt.Fprintln(out)
	if strings.HasPrefix(strings.ToLower(ask("Configure proxy? [y/N]", "n")), "y") {
		fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
		cfg.ProxyMode = ask("Proxy mode", "system")
		if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
			cfg.ProxyHost = ask("Proxy host", "")
			port := ask("Proxy port", "8080")
			if p, perr := strconv.Atoi(port); perr == nil && p > 0 {
				cfg.ProxyPort = p
			}
			cfg.ProxyUser = ask("Proxy user (optional)", "")
			if err == nil && cfg.ProxyUser != "" {
				cfg.ProxyPassword, err = promptSecret(r, out, "Proxy password")
			}
		}
		cfg.NoProxy = ask("Hosts to bypass (no_proxy)", "")
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration from the config file, environment
overrides and global flags. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, from := config.ResolveTokenSource(token, tokenFile, cfg)
			printConfig(cmd.OutOrStdout(), configPath(), cfg.Masked(), from)
			return nil
		},
	}
}

func printConfig(w io.Writer, path string, cfg config.Config, tokenFrom string) {
	orNone := func(s string) string {
		if s == "" {
			return "(not set)"
		}
		return s
	}

	fmt.Fprintf(w, "Config file:    %s\n\n", path)
	fmt.Fprintf(w, "API URL:        %s\n", orNone(cfg.APIBaseURL))
	fmt.Fprintf(w, "Transform URL:  %s\n", orNone(cfg.TransformURL))
	fmt.Fprintf(w, "Token:          %s\n", orNone(cfg.Token))
	fmt.Fprintf(w, "Token source:   %s\n", orNone(tokenFrom))
	fmt.Fprintf(w, "User id:        %s\n", orNone(cfg.UserID))
	fmt.Fprintf(w, "Download dir:   %s\n", orNone(cfg.DownloadDir))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Proxy mode:     %s\n", orNone(cfg.ProxyMode))
	if cfg.ProxyHost != "" {
		fmt.Fprintf(w, "Proxy:          %s:%d (user %s, password %s)\n", cfg.ProxyHost, cfg.ProxyPort, orNone(cfg.ProxyUser), orNone(cfg.ProxyPassword))
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(w, "No proxy:       %s\n", cfg.NoProxy)
	}
	fmt.Fprintf(w, "Max retries:    %d\n", cfg.MaxRetries)
	fmt.Fprintf(w, "Timeout:        %ds\n", cfg.TimeoutSeconds)
	fmt.Fprintf(w, "Rate limit:     %g req/s\n", cfg.RateLimit)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "S3 region:      %s\n", orNone(cfg.Storage.S3Region))
	if cfg.Storage.S3Endpoint != "" {
		fmt.Fprintf(w, "S3 endpoint:    %s\n", cfg.Storage.S3Endpoint)
	}
	if cfg.Storage.S3AccessKey != "" {
		fmt.Fprintf(w, "S3 keys:        %s / %s\n", cfg.Storage.S3AccessKey, orNone(cfg.Storage.S3SecretKey))
	}
	fmt.Fprintf(w, "Azure account:  %s\n", orNone(cfg.Storage.AzureAccount))
	if cfg.Storage.AzureSASToken != "" {
		fmt.Fprintf(w, "Azure SAS:      %s\n", cfg.Storage.AzureSASToken)
	}
}

func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the API connection",
		Long:  `Lists the root folder once to check the URL, proxy and token.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Testing connection to %s as %s...\n", a.client.BaseURL(), a.session.UserID)
			if http.NeedsProxyPassword(a.cfg) {
				fmt.Fprintln(out, "Warning: proxy_user is set but proxy_password is empty")
			}

			start := time.Now()
			files, err := a.client.ListFiles(cmd.Context(), a.session.UserID, nil)
			if err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}
			fmt.Fprintf(out, "✓ Connected in %s (%d entries at root)\n", time.Since(start).Round(time.Millisecond), len(files))
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long:  `Prints the user id every request is scoped to, derived from the token subject or user_id.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			session, from, err := resolveSession(cfg)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), session, from, time.Now())
			return nil
		},
	}
}

func printSession(w io.Writer, s auth.Session, from string, now time.Time) {
	fmt.Fprintf(w, "User:    %s\n", s.UserID)
	fmt.Fprintf(w, "Token:   from %s\n", from)
	switch {
	case s.ExpiresAt.IsZero():
		fmt.Fprintln(w, "Expires: unknown")
	case s.Expired(now):
		fmt.Fprintf(w, "Expires: %s (expired)\n", s.ExpiresAt.Local().Format(time.RFC1123))
	default:
		fmt.Fprintf(w, "Expires: %s (in %s)\n", s.ExpiresAt.Local().Format(time.RFC1123), s.ExpiresAt.Sub(now).Round(time.Minute))
	}
}
