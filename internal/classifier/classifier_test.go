package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iamwavecut/ngmod/internal/adapters"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity"
	"github.com/iamwavecut/ngmod/internal/ratewindow"
)

type stubScorer struct {
	scores []toxicity.LabelScore
	err    error
	block  bool
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, _ string) ([]toxicity.LabelScore, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.scores, s.err
}

func toxicScorer(score float64) *stubScorer {
	return &stubScorer{scores: []toxicity.LabelScore{{Label: "toxic", Score: score}}}
}

func newTestClassifier(t *testing.T, scorer *stubScorer, opts ...Option) *Classifier {
	t.Helper()
	policies, err := LoadPolicies("")
	if err != nil {
		t.Fatalf("load policies: %v", err)
	}
	var s adapters.Toxicity
	if scorer != nil {
		s = scorer
	}
	c, err := New(s, ratewindow.NewMemory(5, 7*time.Second), policies, opts...)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	return c
}

func TestClassifyPrecedence(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name   string
		scorer *stubScorer
		text   string
		want   Kind
	}{
		{name: "toxic beats banned link", scorer: toxicScorer(0.95), text: "idiot go to pornhub.com", want: Toxic},
		{name: "threshold is inclusive", scorer: toxicScorer(0.7), text: "hello", want: Toxic},
		{name: "below threshold", scorer: toxicScorer(0.69), text: "hello", want: Clean},
		{name: "banned link", scorer: toxicScorer(0.1), text: "check https://PornHub.com/x", want: BannedLink},
		{name: "banned link beats scam", scorer: toxicScorer(0.1), text: "free nitro at discord.gift/abc", want: BannedLink},
		{name: "scam token", scorer: toxicScorer(0.1), text: "FREE NITRO for everyone", want: ScamLink},
		{name: "scam beats bad word", scorer: toxicScorer(0.1), text: "free nitro, shit", want: ScamLink},
		{name: "bad word", scorer: toxicScorer(0.1), text: "what the Fuck", want: BadWord},
		{name: "scam token with cyrillic lookalikes", scorer: toxicScorer(0.1), text: "frее nіtro here", want: ScamLink},
		{name: "bad word with cyrillic lookalikes", scorer: toxicScorer(0.1), text: "ѕhit happens", want: BadWord},
		{name: "cyrillic text stays clean", scorer: toxicScorer(0.1), text: "доброе утро", want: Clean},
		{name: "clean", scorer: toxicScorer(0.1), text: "good morning", want: Clean},
		{name: "no scorer", scorer: nil, text: "good morning", want: Clean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClassifier(t, tt.scorer)
			got := c.Classify(context.Background(), tt.text, "u1", now)
			if got.Kind != tt.want {
				t.Fatalf("Classify(%q) = %s (%s), want %s", tt.text, got.Kind, got.Reason, tt.want)
			}
			if got.Kind == Toxic && got.Confidence < DefaultThreshold {
				t.Fatalf("unexpected confidence %v", got.Confidence)
			}
			if got.IsViolation() && got.Reason == "" {
				t.Fatal("violation must carry a reason")
			}
		})
	}
}

func TestClassifyFailsOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scorer *stubScorer
	}{
		{name: "transport error", scorer: &stubScorer{err: errors.New("boom")}},
		{name: "malformed", scorer: &stubScorer{err: toxicity.ErrMalformedResponse}},
		{name: "no toxic label", scorer: &stubScorer{scores: []toxicity.LabelScore{{Label: "insult", Score: 0.99}}}},
		{name: "timeout", scorer: &stubScorer{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClassifier(t, tt.scorer, WithTimeout(20*time.Millisecond))
			got := c.Classify(context.Background(), "see pornhub.com", "u1", time.Now())
			if got.Kind != BannedLink {
				t.Fatalf("expected fall through to banned link, got %s", got.Kind)
			}
		})
	}
}

func TestClassifySpamWindow(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, nil)
	start := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 5; i++ {
		got := c.Classify(context.Background(), "hi", "u1", start.Add(time.Duration(i)*time.Second))
		if got.Kind != Clean {
			t.Fatalf("message %d: got %s", i+1, got.Kind)
		}
	}
	got := c.Classify(context.Background(), "hi", "u1", start.Add(5*time.Second))
	if got.Kind != Spam {
		t.Fatalf("sixth message: got %s", got.Kind)
	}
	got = c.Classify(context.Background(), "free nitro", "u1", start.Add(5500*time.Millisecond))
	if got.Kind != Spam {
		t.Fatalf("spam must win over scam tokens, got %s", got.Kind)
	}

	got = c.Classify(context.Background(), "hi", "u1", start.Add(20*time.Second))
	if got.Kind != Clean {
		t.Fatalf("after the window elapsed: got %s", got.Kind)
	}
}

func TestClassifySkipsScorerForBlankText(t *testing.T) {
	t.Parallel()

	scorer := toxicScorer(0.99)
	c := newTestClassifier(t, scorer)
	if got := c.Classify(context.Background(), "   ", "u1", time.Now()); got.Kind != Clean {
		t.Fatalf("got %s", got.Kind)
	}
	if scorer.calls != 0 {
		t.Fatalf("scorer called %d times", scorer.calls)
	}
}

func TestWithThresholdOverridesDefault(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, toxicScorer(0.8), WithThreshold(0.9))
	if got := c.Classify(context.Background(), "hello", "u1", time.Now()); got.Kind != Clean {
		t.Fatalf("got %s", got.Kind)
	}
}
