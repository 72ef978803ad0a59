package infra

import (
	"path/filepath"
	"testing"
)

func TestRecoverableContainsPanic(t *testing.T) {
	t.Parallel()

	if panicked := Recoverable(func() { panic("boom") }); !panicked {
		t.Fatal("expected panic to be reported")
	}
	ran := false
	if panicked := Recoverable(func() { ran = true }); panicked || !ran {
		t.Fatalf("unexpected result: panicked=%v ran=%v", panicked, ran)
	}
}

func TestEnsureDirAndResolveDataPath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dir, err := EnsureDir(base, "nested", "dir")
	if err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if dir != filepath.Join(base, "nested", "dir") {
		t.Fatalf("unexpected dir %q", dir)
	}
	if got := ResolveDataPath(dir, "bot.db"); got != filepath.Join(dir, "bot.db") {
		t.Fatalf("unexpected relative path %q", got)
	}
	if got := ResolveDataPath(dir, "/var/lib/bot.db"); got != "/var/lib/bot.db" {
		t.Fatalf("unexpected absolute path %q", got)
	}
}
