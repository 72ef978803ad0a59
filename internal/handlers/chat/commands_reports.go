package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
	"github.com/iamwavecut/ngmod/internal/i18n"
)

const (
	reportTimeLayout = "2006-01-02 15:04"

	warningLine = `{{ .n }}. {{ .reason }} · {{ .by }} · {{ .at }}`
	logLine     = `{{ .n }}. {{ .action }} {{ .target }} · {{ .by }} · {{ .at }}{{ if .reason }} · {{ .reason }}{{ end }}`
)

func (c *Commands) warnings(ctx context.Context, inv *invocation) error {
	userID, typed := inv.target()
	if userID == "" {
		c.usage(ctx, inv, "@user")
		return nil
	}
	target := c.display(ctx, inv.msg.GuildID, userID, typed)

	warnings, err := c.store.ListWarnings(ctx, inv.msg.GuildID, userID, db.WarningsLimit)
	if err != nil {
		c.reply(ctx, inv, i18n.Get("❌ Failed to fetch warnings.", inv.language))
		return err
	}
	if len(warnings) == 0 {
		c.reply(ctx, inv, fmt.Sprintf(i18n.Get("📭 No warnings found for %s.", inv.language), target))
		return nil
	}

	lines := []string{fmt.Sprintf(i18n.Get("⚠️ Warnings for %s:", inv.language), target)}
	for i, w := range warnings {
		lines = append(lines, tool.ExecTemplate(warningLine, map[string]any{
			"n":      i + 1,
			"reason": w.Reason,
			"by":     w.WarnedBy,
			"at":     w.CreatedTime().UTC().Format(reportTimeLayout),
		}))
	}
	c.reply(ctx, inv, strings.Join(lines, "\n"))
	return nil
}

func (c *Commands) setLogChannel(ctx context.Context, inv *invocation) error {
	if len(inv.args) == 0 {
		c.usage(ctx, inv, "#channel")
		return nil
	}
	m := channelToken.FindStringSubmatch(inv.args[0])
	if m == nil {
		c.usage(ctx, inv, "#channel")
		return nil
	}
	channelID := m[1]
	if channelID == "" {
		channelID = m[2]
	}

	channel, err := c.s.GetGateway().Channel(ctx, channelID)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		c.reply(ctx, inv, i18n.Get("❌ That channel does not exist or is not a text channel.", inv.language))
		return nil
	case err != nil:
		c.reply(ctx, inv, i18n.Get("❌ Failed to save log channel.", inv.language))
		return err
	}
	if !channel.Text || (channel.GuildID != "" && channel.GuildID != inv.msg.GuildID) {
		c.reply(ctx, inv, i18n.Get("❌ That channel does not exist or is not a text channel.", inv.language))
		return nil
	}

	err = c.store.SetLogChannel(ctx, &db.LogChannelSetting{GuildID: inv.msg.GuildID, ChannelID: channel.ID})
	if err != nil {
		c.reply(ctx, inv, i18n.Get("❌ Failed to save log channel.", inv.language))
		return err
	}
	name := inv.args[0]
	if channel.Name != "" {
		name = "#" + channel.Name
	}
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("✅ Moderation log channel set to %s.", inv.language), name))
	return nil
}

func (c *Commands) modLog(ctx context.Context, inv *invocation) error {
	entries, err := c.store.ListModerationLogs(ctx, inv.msg.GuildID, db.WarningsLimit)
	if err != nil {
		c.reply(ctx, inv, i18n.Get("❌ Failed to fetch moderation log.", inv.language))
		return err
	}
	if len(entries) == 0 {
		c.reply(ctx, inv, i18n.Get("📭 No moderation actions recorded yet.", inv.language))
		return nil
	}

	lines := []string{i18n.Get("📋 Recent moderation actions:", inv.language)}
	for i, e := range entries {
		lines = append(lines, tool.ExecTemplate(logLine, map[string]any{
			"n":      i + 1,
			"action": strings.ToUpper(string(e.Action)),
			"target": e.TargetID,
			"by":     e.ModeratorID,
			"at":     e.CreatedTime().UTC().Format(reportTimeLayout),
			"reason": e.Reason,
		}))
	}
	c.reply(ctx, inv, strings.Join(lines, "\n"))
	return nil
}
