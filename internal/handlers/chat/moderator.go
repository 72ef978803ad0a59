package handlers

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/classifier"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/handlers/moderation"
	"github.com/iamwavecut/ngmod/internal/i18n"
)

var explanationKeys = map[classifier.Kind]string{
	classifier.Toxic:      "🚫 %s, your message was removed for toxic language.",
	classifier.BannedLink: "🚫 %s, your message was removed because it contained a banned link.",
	classifier.Spam:       "🚫 %s, slow down! Your message was removed as spam.",
	classifier.ScamLink:   "🚫 %s, your message was removed because it looked like a scam.",
	classifier.BadWord:    "🚫 %s, your message was removed for inappropriate language.",
}

type verdictSource interface {
	Classify(ctx context.Context, text, userID string, now time.Time) classifier.Verdict
}

type actionRecorder interface {
	Record(ctx context.Context, action moderation.Action) error
}

// Moderator runs every guild message through the classifier and enforces
// the first violation found.
type Moderator struct {
	s          bot.Service
	classifier verdictSource
	auditor    actionRecorder
	now        func() time.Time
}

func NewModerator(s bot.Service, classifier verdictSource, auditor actionRecorder) *Moderator {
	m := &Moderator{
		s:          s,
		classifier: classifier,
		auditor:    auditor,
		now:        time.Now,
	}
	m.getLogEntry().Debug("created new moderator")
	return m
}

func (m *Moderator) getLogEntry() *log.Entry {
	return log.WithField("object", "Moderator")
}

func (m *Moderator) Handle(ctx context.Context, msg *bot.Message) (bool, error) {
	if msg == nil || msg.AuthorIsBot || !msg.IsGuildMessage() {
		return true, nil
	}

	at := msg.Timestamp
	if at.IsZero() {
		at = m.now()
	}
	verdict := m.classifier.Classify(ctx, msg.Text, msg.AuthorID, at)
	if !verdict.IsViolation() {
		return true, nil
	}
	return false, m.enforce(ctx, msg, verdict)
}

// enforce deletes the message, explains why and records the deletion.
// Processing of the message stops here whatever happens.
func (m *Moderator) enforce(ctx context.Context, msg *bot.Message, verdict classifier.Verdict) error {
	entry := m.getLogEntry().WithFields(log.Fields{
		"method":     "enforce",
		"guild_id":   msg.GuildID,
		"channel_id": msg.ChannelID,
		"user_id":    msg.AuthorID,
		"verdict":    verdict.Kind,
	})
	gw := m.s.GetGateway()

	if err := gw.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		entry.WithError(err).Error("cant delete offending message")
		return err
	}

	if key, ok := explanationKeys[verdict.Kind]; ok {
		text := fmt.Sprintf(i18n.Get(key, m.s.GetLanguage(msg)), authorMention(msg))
		if err := gw.Send(ctx, msg.ChannelID, bot.OutgoingMessage{Text: text}); err != nil {
			entry.WithError(err).Warn("cant send explanation")
		}
	}

	err := m.auditor.Record(ctx, moderation.Action{
		GuildID:       msg.GuildID,
		ModeratorID:   gw.SelfID(),
		Kind:          db.ActionDelete,
		TargetID:      msg.AuthorID,
		TargetMention: authorMention(msg),
		Reason:        verdict.Reason,
	})
	if err != nil {
		entry.WithError(err).Error("cant record deletion")
	}
	entry.WithField("reason", verdict.Reason).Info("message removed")
	return nil
}

func authorMention(msg *bot.Message) string {
	switch {
	case msg.AuthorMention != "":
		return msg.AuthorMention
	case msg.AuthorName != "":
		return msg.AuthorName
	default:
		return msg.AuthorID
	}
}
