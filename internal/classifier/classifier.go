// Package classifier runs the ordered policy chain over one message text.
package classifier

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/iamwavecut/ngmod/internal/adapters"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity"
	"github.com/iamwavecut/ngmod/internal/observability"
	"github.com/iamwavecut/ngmod/internal/ratewindow"
	textutil "github.com/iamwavecut/ngmod/internal/utils/text"
)

type Kind string

const (
	Clean      Kind = "clean"
	Toxic      Kind = "toxic"
	BannedLink Kind = "banned_link"
	Spam       Kind = "spam"
	ScamLink   Kind = "scam_link"
	BadWord    Kind = "bad_word"
)

const (
	DefaultThreshold = 0.7
	DefaultTimeout   = 5 * time.Second
)

// Verdict is the outcome of one classification. Confidence is set for Toxic only.
type Verdict struct {
	Kind       Kind
	Confidence float64
	Reason     string
}

func (v Verdict) IsViolation() bool {
	return v.Kind != Clean && v.Kind != ""
}

type Classifier struct {
	scorer    adapters.Toxicity
	window    ratewindow.Window
	policies  *compiledPolicies
	threshold float64
	timeout   time.Duration
}

type Option func(*Classifier)

func WithThreshold(threshold float64) Option {
	return func(c *Classifier) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Classifier) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New builds a classifier. A nil scorer disables the toxicity check.
func New(scorer adapters.Toxicity, window ratewindow.Window, policies *Policies, opts ...Option) (*Classifier, error) {
	if policies == nil {
		policies = &Policies{}
	}
	compiled, err := policies.compile()
	if err != nil {
		return nil, err
	}
	c := &Classifier{
		scorer:    scorer,
		window:    window,
		policies:  compiled,
		threshold: DefaultThreshold,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Classifier) getLogEntry() *log.Entry {
	return log.WithField("object", "Classifier")
}

// Classify returns the first matching verdict in order: toxic, banned link,
// spam, scam link, bad word. The rate window is fed only when the checks
// before it pass.
func (c *Classifier) Classify(ctx context.Context, text, userID string, now time.Time) Verdict {
	ctx, span := observability.Tracer().Start(ctx, "classify")
	defer span.End()

	verdict := c.classify(ctx, text, userID, now)

	span.SetAttributes(
		attribute.String("verdict", string(verdict.Kind)),
		attribute.String("user_id", userID),
	)
	observability.RecordVerdict(string(verdict.Kind))
	if verdict.IsViolation() {
		span.SetStatus(codes.Ok, verdict.Reason)
		observability.Logger.Info("message flagged",
			zap.String("verdict", string(verdict.Kind)),
			zap.String("user_id", userID),
			zap.Float64("confidence", verdict.Confidence),
			zap.String("reason", verdict.Reason),
		)
	}
	return verdict
}

func (c *Classifier) classify(ctx context.Context, text, userID string, now time.Time) Verdict {
	if score, toxic := c.checkToxicity(ctx, text); toxic {
		return Verdict{Kind: Toxic, Confidence: score, Reason: "Toxic message detected"}
	}

	lower := strings.ToLower(text)
	if pattern, ok := c.policies.matchBannedLink(lower); ok {
		return Verdict{Kind: BannedLink, Reason: "Banned link: " + pattern}
	}

	if c.window != nil {
		over, err := c.window.Record(ctx, userID, now)
		if err != nil {
			c.getLogEntry().WithField("user_id", userID).WithError(err).Warn("rate window failed")
		} else if over {
			return Verdict{Kind: Spam, Reason: "Spam: message rate limit exceeded"}
		}
	}

	folded := lower
	if textutil.IsMixedScript(lower) {
		folded = textutil.FoldLookalikes(lower)
	}
	if token, ok := containsAny(c.policies.scamTokens, lower, folded); ok {
		return Verdict{Kind: ScamLink, Reason: "Scam link: " + token}
	}
	if word, ok := containsAny(c.policies.badWords, lower, folded); ok {
		return Verdict{Kind: BadWord, Reason: "Bad word: " + word}
	}
	return Verdict{Kind: Clean}
}

// checkToxicity fails open: any error, timeout or unexpected shape is not toxic.
func (c *Classifier) checkToxicity(ctx context.Context, text string) (float64, bool) {
	if c.scorer == nil || strings.TrimSpace(text) == "" {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	scores, err := c.scorer.Score(ctx, text)
	if err != nil {
		observability.RecordToxicityError()
		c.getLogEntry().WithError(err).Debug("toxicity check failed, treating as not toxic")
		return 0, false
	}
	score, found := toxicity.ToxicScore(scores)
	if !found {
		observability.RecordToxicityError()
		c.getLogEntry().WithField("scores", scores).Debug("no toxic label in response")
		return 0, false
	}
	return score, score >= c.threshold
}
