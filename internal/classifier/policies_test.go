package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoadPoliciesFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policies.yml")
	content := "banned_link_patterns:\n  - 'evil\\.example'\nscam_tokens:\n  - ' Gift Card '\nbad_words: []\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policies: %v", err)
	}

	p, err := LoadPolicies(path)
	if err != nil {
		t.Fatalf("load policies: %v", err)
	}
	want := &Policies{
		BannedLinkPatterns: []string{`evil\.example`},
		ScamTokens:         []string{" Gift Card "},
		BadWords:           []string{},
	}
	if diff := cmp.Diff(want, p, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected policies (-want +got):\n%s", diff)
	}

	compiled, err := p.compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if diff := cmp.Diff([]string{"gift card"}, compiled.scamTokens); diff != "" {
		t.Fatalf("tokens must be trimmed and lower-cased (-want +got):\n%s", diff)
	}
}

func TestLoadPoliciesRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policies.yml")
	if err := os.WriteFile(path, []byte("bad_wrds: [x]\n"), 0o600); err != nil {
		t.Fatalf("write policies: %v", err)
	}
	if _, err := LoadPolicies(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil, &Policies{BannedLinkPatterns: []string{"("}}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
