package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/handlers/moderation"
	"github.com/iamwavecut/ngmod/internal/i18n"
)

var (
	userToken    = regexp.MustCompile(`^(?:<@!?([^>\s]+)>|(-?\d+)|@\S+)$`)
	channelToken = regexp.MustCompile(`^(?:<#(\d+)>|(-?\d+))$`)
)

type accessGate interface {
	IsOwner(userID string) bool
	IsAuthorized(ctx context.Context, userID string) (bool, error)
	Allow(ctx context.Context, actorID, userID string) error
	Revoke(ctx context.Context, actorID, userID string) error
}

type sanctioner interface {
	Mute(ctx context.Context, req moderation.MuteRequest) (*db.Sanction, error)
	Unmute(ctx context.Context, guildID, userID, moderatorID, reason string) error
}

type commandStore interface {
	AddWarning(ctx context.Context, warning *db.Warning) error
	ListWarnings(ctx context.Context, guildID, userID string, limit int) ([]db.Warning, error)
	ListModerationLogs(ctx context.Context, guildID string, limit int) ([]db.ModerationLogEntry, error)
	SetLogChannel(ctx context.Context, setting *db.LogChannelSetting) error
}

type command func(ctx context.Context, inv *invocation) error

// invocation is one parsed command message.
type invocation struct {
	msg      *bot.Message
	token    string
	args     []string
	language string
}

// Commands dispatches prefixed messages through a token registry. Every
// command requires the author to pass the access gate.
type Commands struct {
	s         bot.Service
	gate      accessGate
	scheduler sanctioner
	auditor   actionRecorder
	store     commandStore
	prefix    string
	registry  map[string]command
	now       func() time.Time
}

func NewCommands(s bot.Service, gate accessGate, scheduler sanctioner, auditor actionRecorder, prefix string) *Commands {
	c := &Commands{
		s:         s,
		gate:      gate,
		scheduler: scheduler,
		auditor:   auditor,
		store:     s.GetDB(),
		prefix:    prefix,
		now:       time.Now,
	}
	c.registry = map[string]command{
		"allow":         c.allow,
		"disallow":      c.disallow,
		"kick":          c.kick,
		"ban":           c.ban,
		"mute":          c.mute,
		"unmute":        c.unmute,
		"warn":          c.warn,
		"warnings":      c.warnings,
		"setlogchannel": c.setLogChannel,
		"modlog":        c.modLog,
	}
	c.getLogEntry().WithField("prefix", prefix).Debug("created new command router")
	return c
}

func (c *Commands) getLogEntry() *log.Entry {
	return log.WithField("object", "Commands")
}

func (c *Commands) Handle(ctx context.Context, msg *bot.Message) (bool, error) {
	if msg == nil || c.prefix == "" || !strings.HasPrefix(msg.Text, c.prefix) {
		return true, nil
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Text, c.prefix))
	if len(fields) == 0 {
		return true, nil
	}
	token := strings.ToLower(fields[0])
	// Telegram appends the bot username to commands in groups.
	if at := strings.IndexByte(token, '@'); at > 0 {
		token = token[:at]
	}
	cmd, ok := c.registry[token]
	if !ok {
		return true, nil
	}

	inv := &invocation{
		msg:      msg,
		token:    token,
		args:     fields[1:],
		language: c.s.GetLanguage(msg),
	}
	entry := c.getLogEntry().WithFields(log.Fields{
		"method":   "Handle",
		"command":  token,
		"guild_id": msg.GuildID,
		"user_id":  msg.AuthorID,
	})

	authorized, err := c.gate.IsAuthorized(ctx, msg.AuthorID)
	if err != nil {
		entry.WithError(err).Warn("access check failed")
	}
	if !authorized {
		c.reply(ctx, inv, i18n.Get("❌ You are not authorized to use this bot.", inv.language))
		return false, nil
	}

	if err := cmd(ctx, inv); err != nil {
		entry.WithError(err).Error("command failed")
		return false, errors.WithMessagef(err, "command %s", token)
	}
	return false, nil
}

func (c *Commands) reply(ctx context.Context, inv *invocation, text string) {
	err := c.s.GetGateway().Send(ctx, inv.msg.ChannelID, bot.OutgoingMessage{Text: text, ReplyTo: inv.msg.ID})
	if err != nil {
		c.getLogEntry().WithFields(log.Fields{
			"method":     "reply",
			"channel_id": inv.msg.ChannelID,
		}).WithError(err).Warn("cant send reply")
	}
}

func (c *Commands) usage(ctx context.Context, inv *invocation, syntax string) {
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("Usage: `%s`", inv.language), c.prefix+inv.token+" "+syntax))
}

// target consumes a leading user token when present and falls back to the
// first mention the transport resolved, such as the author of a replied-to
// message. A bare number is read as an id only when there is no such mention,
// so "3 times" stays part of the reason. The second value is the token as typed.
func (inv *invocation) target() (userID string, typed string) {
	if len(inv.args) > 0 {
		m := userToken.FindStringSubmatch(inv.args[0])
		if m != nil && m[2] != "" && len(inv.msg.Mentions) > 0 {
			m = nil
		}
		if m != nil {
			typed = inv.args[0]
			inv.args = inv.args[1:]
			switch {
			case m[1] != "":
				return m[1], typed
			case m[2] != "":
				return m[2], typed
			}
		}
	}
	if len(inv.msg.Mentions) > 0 {
		return inv.msg.Mentions[0], typed
	}
	return "", typed
}

func (inv *invocation) rest() string {
	return strings.TrimSpace(strings.Join(inv.args, " "))
}

func (inv *invocation) reasonOrDefault() string {
	if reason := inv.rest(); reason != "" {
		return reason
	}
	return i18n.Get("No reason provided", inv.language)
}

// display renders a user for replies, preferring the transport mention.
func (c *Commands) display(ctx context.Context, guildID, userID, typed string) string {
	if member, err := c.s.GetGateway().ResolveMember(ctx, guildID, userID); err == nil && member.Mention != "" {
		return member.Mention
	}
	if typed != "" {
		return typed
	}
	return userID
}

func (c *Commands) audit(ctx context.Context, action moderation.Action) {
	if err := c.auditor.Record(ctx, action); err != nil {
		c.getLogEntry().WithFields(log.Fields{
			"method":   "audit",
			"guild_id": action.GuildID,
			"action":   action.Kind,
		}).WithError(err).Error("cant record moderation action")
	}
}
