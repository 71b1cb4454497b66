package config

import (
	"path/filepath"
	"testing"
)

func TestResolveTokenSource(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	t.Setenv(TokenEnvVar, "")

	explicitFile := filepath.Join(t.TempDir(), "tok")
	if err := WriteTokenFile(explicitFile, "from-file\n"); err != nil {
		t.Fatalf("WriteTokenFile() error = %v", err)
	}

	cfgWithToken := NewConfig()
	cfgWithToken.Token = " from-config "

	tests := []struct {
		name       string
		flag       string
		file       string
		cfg        *Config
		env        string
		defaultTok string
		wantToken  string
		wantSource string
	}{
		{"flag wins", "from-flag", explicitFile, cfgWithToken, "from-env", "", "from-flag", "flag"},
		{"token file", "", explicitFile, cfgWithToken, "from-env", "", "from-file", "token-file"},
		{"config", "", "", cfgWithToken, "from-env", "", "from-config", "config"},
		{"default token file", "", "", NewConfig(), "from-env", "from-default", "from-default", "default-token-file"},
		{"environment", "", "", NewConfig(), "from-env", "", "from-env", "environment"},
		{"nothing", "", "", nil, "", "", "", ""},
		{"unreadable file falls through", "", filepath.Join(home, "nope"), nil, "from-env", "", "from-env", "environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(TokenEnvVar, tt.env)
			if tt.defaultTok != "" {
				if err := WriteTokenFile(DefaultTokenPath(), tt.defaultTok); err != nil {
					t.Fatal(err)
				}
				t.Cleanup(func() {
					_ = WriteTokenFile(DefaultTokenPath(), " ")
				})
			}

			tok, src := ResolveTokenSource(tt.flag, tt.file, tt.cfg)
			if tok != tt.wantToken {
				t.Errorf("token = %q, want %q", tok, tt.wantToken)
			}
			if src != tt.wantSource {
				t.Errorf("source = %q, want %q", src, tt.wantSource)
			}
		})
	}
}

func TestReadTokenFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := WriteTokenFile(path, "   "); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTokenFile(path); err == nil {
		t.Error("ReadTokenFile() should fail for an empty token")
	}
}
