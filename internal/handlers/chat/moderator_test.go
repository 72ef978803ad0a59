package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iamwavecut/ngmod/internal/classifier"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
)

type stubClassifier struct {
	verdict classifier.Verdict
	calls   int
}

func (s *stubClassifier) Classify(context.Context, string, string, time.Time) classifier.Verdict {
	s.calls++
	return s.verdict
}

func TestModeratorPassesCleanMessages(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	m := NewModerator(e.service, &stubClassifier{verdict: classifier.Verdict{Kind: classifier.Clean}}, e.auditor)

	proceed, err := m.Handle(context.Background(), e.message("u1", "hello there"))
	if err != nil || !proceed {
		t.Fatalf("clean message must proceed, got %v %v", proceed, err)
	}
	if len(e.gateway.Deleted) != 0 || len(e.gateway.SentMessages()) != 0 || len(e.logs(t)) != 0 {
		t.Fatal("clean message must have no side effects")
	}
}

func TestModeratorEnforcesViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verdict classifier.Verdict
		want    string
	}{
		{name: "toxic", verdict: classifier.Verdict{Kind: classifier.Toxic, Confidence: 0.93, Reason: "Toxic message detected"}, want: "toxic language"},
		{name: "banned link", verdict: classifier.Verdict{Kind: classifier.BannedLink, Confidence: 1, Reason: "Banned link: discord\\.gg/"}, want: "banned link"},
		{name: "spam", verdict: classifier.Verdict{Kind: classifier.Spam, Confidence: 1, Reason: "Spam: message rate limit exceeded"}, want: "slow down"},
		{name: "scam", verdict: classifier.Verdict{Kind: classifier.ScamLink, Confidence: 1, Reason: "Scam link: free nitro"}, want: "scam"},
		{name: "bad word", verdict: classifier.Verdict{Kind: classifier.BadWord, Confidence: 1, Reason: "Bad word: heck"}, want: "inappropriate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			m := NewModerator(e.service, &stubClassifier{verdict: tt.verdict}, e.auditor)
			msg := e.message("u1", "offending text")

			proceed, err := m.Handle(context.Background(), msg)
			if err != nil || proceed {
				t.Fatalf("violation must stop processing without error, got %v %v", proceed, err)
			}
			if len(e.gateway.Deleted) != 1 || e.gateway.Deleted[0] != channelID+"/"+msg.ID {
				t.Fatalf("unexpected deletions %v", e.gateway.Deleted)
			}

			sent := e.gateway.SentMessages()
			if len(sent) != 1 || !strings.Contains(sent[0].Message.Text, "<@u1>") || !strings.Contains(sent[0].Message.Text, tt.want) {
				t.Fatalf("unexpected explanation %#v", sent)
			}

			entries := e.logs(t)
			if len(entries) != 1 {
				t.Fatalf("expected one audit entry, got %d", len(entries))
			}
			got := entries[0]
			if got.Action != db.ActionDelete || got.ModeratorID != selfID || got.TargetID != "u1" || got.Reason != tt.verdict.Reason {
				t.Fatalf("unexpected audit entry %#v", got)
			}
		})
	}
}

func TestModeratorStopsWhenDeleteFails(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.gateway.DeleteErr = errors.Transport("delete message", errors.New("missing permissions"))
	m := NewModerator(e.service, &stubClassifier{verdict: classifier.Verdict{Kind: classifier.Spam, Reason: "Spam: message rate limit exceeded"}}, e.auditor)

	proceed, err := m.Handle(context.Background(), e.message("u1", "spam"))
	if proceed || !errors.Is(err, errors.ErrTransport) {
		t.Fatalf("expected transport error, got %v %v", proceed, err)
	}
	if len(e.gateway.SentMessages()) != 0 || len(e.logs(t)) != 0 {
		t.Fatal("nothing must follow a failed deletion")
	}
}

func TestModeratorAuditsWhenExplanationFails(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.gateway.SendErr = errors.Transport("send", errors.New("rate limited"))
	m := NewModerator(e.service, &stubClassifier{verdict: classifier.Verdict{Kind: classifier.BadWord, Reason: "Bad word: heck"}}, e.auditor)

	if _, err := m.Handle(context.Background(), e.message("u1", "heck")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(e.logs(t)) != 1 {
		t.Fatal("deletion must be audited even when the explanation is lost")
	}
}

func TestModeratorLocalizesExplanation(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	m := NewModerator(e.service, &stubClassifier{verdict: classifier.Verdict{Kind: classifier.Toxic, Reason: "Toxic message detected"}}, e.auditor)
	msg := e.message("u1", "...")
	msg.Language = "ru"

	if _, err := m.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	sent := e.gateway.SentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].Message.Text, "удалено") {
		t.Fatalf("expected russian explanation, got %#v", sent)
	}
}

func TestModeratorSkipsBots(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	stub := &stubClassifier{verdict: classifier.Verdict{Kind: classifier.Toxic}}
	m := NewModerator(e.service, stub, e.auditor)
	msg := e.message("other-bot", "beep")
	msg.AuthorIsBot = true

	if proceed, err := m.Handle(context.Background(), msg); err != nil || !proceed {
		t.Fatalf("bot message must pass through, got %v %v", proceed, err)
	}
	if stub.calls != 0 {
		t.Fatal("bot messages must not be classified")
	}
}
