package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
	"github.com/iamwavecut/ngmod/internal/i18n"
	"github.com/iamwavecut/ngmod/internal/observability"
)

const notificationColor = 0xE67E22

type auditStore interface {
	InsertModerationLog(ctx context.Context, entry *db.ModerationLogEntry) error
	GetLogChannel(ctx context.Context, guildID string) (*db.LogChannelSetting, error)
}

// Action is one moderation event. ModeratorID is the invoking user, or the
// bot's own id for automated actions.
type Action struct {
	GuildID       string
	ModeratorID   string
	Kind          db.ActionKind
	TargetID      string
	TargetMention string
	Reason        string
}

type Auditor struct {
	store    auditStore
	gateway  bot.Gateway
	language string
	now      func() time.Time
}

func NewAuditor(store auditStore, gateway bot.Gateway, language string) *Auditor {
	return &Auditor{
		store:    store,
		gateway:  gateway,
		language: language,
		now:      time.Now,
	}
}

func (a *Auditor) getLogEntry() *log.Entry {
	return log.WithField("object", "Auditor")
}

// Record persists the action, then notifies the guild's log channel when one
// is configured. Only the persistence failure is returned.
func (a *Auditor) Record(ctx context.Context, action Action) error {
	if strings.TrimSpace(action.GuildID) == "" {
		return errors.ErrInvalidContext
	}

	entry := &db.ModerationLogEntry{
		GuildID:     action.GuildID,
		ModeratorID: action.ModeratorID,
		Action:      action.Kind,
		TargetID:    action.TargetID,
		Reason:      action.Reason,
		CreatedAt:   a.now().UnixMilli(),
	}
	if err := a.store.InsertModerationLog(ctx, entry); err != nil {
		return err
	}
	observability.RecordAction(string(action.Kind))

	a.notify(ctx, action, entry.CreatedTime())
	return nil
}

func (a *Auditor) notify(ctx context.Context, action Action, at time.Time) {
	entry := a.getLogEntry().WithFields(log.Fields{
		"method":   "notify",
		"guild_id": action.GuildID,
		"action":   action.Kind,
	})

	setting, err := a.store.GetLogChannel(ctx, action.GuildID)
	if err != nil {
		entry.WithError(err).Warn("cant load log channel")
		return
	}
	if setting == nil || setting.ChannelID == "" {
		return
	}
	channel, err := a.gateway.Channel(ctx, setting.ChannelID)
	if err != nil {
		entry.WithError(err).Warn("log channel is not resolvable")
		return
	}
	if !channel.Text {
		entry.WithField("channel_id", channel.ID).Warn("log channel is not text-capable")
		return
	}

	if err := a.gateway.Send(ctx, channel.ID, bot.OutgoingMessage{Embed: a.render(action, at)}); err != nil {
		entry.WithError(err).Warn("cant send moderation notification")
	}
}

func (a *Auditor) render(action Action, at time.Time) *bot.Embed {
	target := action.TargetMention
	if target == "" {
		target = action.TargetID
	}
	reason := action.Reason
	if strings.TrimSpace(reason) == "" {
		reason = i18n.Get("Not provided", a.language)
	}
	moderator := action.ModeratorID
	if action.ModeratorID == a.gateway.SelfID() {
		moderator = "🤖 " + moderator
	}

	return &bot.Embed{
		Title: i18n.Get("Moderation action", a.language),
		Description: tool.ExecTemplate(`{{ .action }} → {{ .target }}`, map[string]any{
			"action": strings.ToUpper(string(action.Kind)),
			"target": target,
		}),
		Fields: []bot.EmbedField{
			{Name: i18n.Get("Action", a.language), Value: string(action.Kind), Inline: true},
			{Name: i18n.Get("Target", a.language), Value: target, Inline: true},
			{Name: i18n.Get("Moderator", a.language), Value: moderator, Inline: true},
			{Name: i18n.Get("Reason", a.language), Value: reason},
		},
		Color:     notificationColor,
		Timestamp: at,
	}
}
