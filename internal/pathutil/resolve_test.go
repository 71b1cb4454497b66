package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"existing", dir, resolved},
		{"missing tail", filepath.Join(dir, "a", "b"), filepath.Join(resolved, "a", "b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAbsolutePath(tt.in)
			if err != nil {
				t.Fatalf("ResolveAbsolutePath(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveAbsolutePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveAbsolutePath_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ResolveAbsolutePath("~/filedash-missing-dir")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "filedash-missing-dir" || !filepath.IsAbs(got) {
		t.Errorf("ResolveAbsolutePath(~) = %q (home %q)", got, home)
	}
}

func TestResolveAbsolutePath_Empty(t *testing.T) {
	got, err := ResolveAbsolutePath("")
	if err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if got != wd {
		t.Errorf("ResolveAbsolutePath(\"\") = %q, want %q", got, wd)
	}
}
