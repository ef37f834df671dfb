package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestConfig_Path(t *testing.T) {
	useTempConfigDir(t)

	path, err := Path()
	if err != nil {
		t.Fatalf("Path() returned error: %v", err)
	}
	if filepath.Base(path) != fileName {
		t.Errorf("expected filename %s, got %s", fileName, filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != dirName {
		t.Errorf("expected parent dir %s, got %s", dirName, filepath.Dir(path))
	}
}

func TestConfig_Load(t *testing.T) {
	t.Run("returns defaults when file does not exist", func(t *testing.T) {
		useTempConfigDir(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if cfg.ServerURL != DefaultURL {
			t.Errorf("expected ServerURL %s, got %s", DefaultURL, cfg.ServerURL)
		}
		if cfg.HasToken() {
			t.Error("expected no token")
		}
	})

	t.Run("fails on malformed file", func(t *testing.T) {
		useTempConfigDir(t)

		p, _ := Path()
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("{not json"), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	groupID := uuid.New()
	in := &Config{
		ServerURL:    "http://inventory.local:9000",
		AccessToken:  "access",
		RefreshToken: "refresh",
		GroupID:      groupID,
	}
	if err := Save(in); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	p, _ := Path()
	info, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != filePerms {
		t.Errorf("expected perms %o, got %o", filePerms, info.Mode().Perm())
	}

	out, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if *out != *in {
		t.Errorf("expected %+v, got %+v", *in, *out)
	}

	out.SignOut()
	if out.HasToken() {
		t.Error("expected SignOut to drop both tokens")
	}
	if out.GroupID != groupID || out.ServerURL != in.ServerURL {
		t.Error("expected SignOut to keep server and group")
	}

	if err := Clear(); err != nil {
		t.Fatalf("Clear() returned error: %v", err)
	}
	if err := Clear(); err != nil {
		t.Fatalf("second Clear() returned error: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("expected config file removed, stat err = %v", err)
	}
}
