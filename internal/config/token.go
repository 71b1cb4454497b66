package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenEnvVar is the environment variable consulted last when resolving a token.
const TokenEnvVar = "FILEDASH_TOKEN"

// ResolveToken returns a bearer token by checking sources in priority order:
//  1. explicit token (e.g. --token flag)
//  2. tokenFile (e.g. --token-file flag)
//  3. the token key of the loaded config
//  4. the default token file (~/.config/filedash/token)
//  5. FILEDASH_TOKEN
//
// Returns empty string if no token is found.
func ResolveToken(token, tokenFile string, cfg *Config) string {
	t, _ := ResolveTokenSource(token, tokenFile, cfg)
	return t
}

// ResolveTokenSource is ResolveToken plus a label for where the token came
// from: "flag", "token-file", "config", "default-token-file", "environment", or "".
func ResolveTokenSource(token, tokenFile string, cfg *Config) (string, string) {
	if token != "" {
		return token, "flag"
	}

	if tokenFile != "" {
		if t, err := ReadTokenFile(tokenFile); err == nil {
			return t, "token-file"
		}
	}

	if cfg != nil && strings.TrimSpace(cfg.Token) != "" {
		return strings.TrimSpace(cfg.Token), "config"
	}

	if p := DefaultTokenPath(); p != "" {
		if t, err := ReadTokenFile(p); err == nil {
			return t, "default-token-file"
		}
	}

	if env := strings.TrimSpace(os.Getenv(TokenEnvVar)); env != "" {
		return env, "environment"
	}

	return "", ""
}

// ReadTokenFile reads a token from a file containing only the token.
// Warns on stderr if the file is readable by group or others.
func ReadTokenFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat token file: %w", err)
	}

	if mode := info.Mode().Perm(); mode&0077 != 0 {
		fmt.Fprintf(os.Stderr, "Warning: Token file %s has insecure permissions %04o. Consider using 'chmod 600 %s'\n", path, mode, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file is empty")
	}
	return token, nil
}

// WriteTokenFile stores a token with 0600 permissions, creating parent directories.
func WriteTokenFile(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(token)+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
