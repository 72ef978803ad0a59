package handlers

import (
	"context"
	"fmt"

	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
	"github.com/iamwavecut/ngmod/internal/handlers/moderation"
	"github.com/iamwavecut/ngmod/internal/i18n"
)

const warnEmoji = "⚠️"

func (c *Commands) kick(ctx context.Context, inv *invocation) error {
	userID, _ := inv.target()
	if userID == "" {
		c.usage(ctx, inv, "@user [reason]")
		return nil
	}
	reason := inv.reasonOrDefault()
	gw := c.s.GetGateway()

	member, err := gw.ResolveMember(ctx, inv.msg.GuildID, userID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			c.reply(ctx, inv, i18n.Get("❌ That user is not a member of this server.", inv.language))
			return nil
		}
		c.reply(ctx, inv, i18n.Get("❌ Failed to kick the user.", inv.language))
		return err
	}
	if err := gw.Kick(ctx, inv.msg.GuildID, member.ID, reason); err != nil {
		c.reply(ctx, inv, i18n.Get("❌ Failed to kick the user.", inv.language))
		return err
	}

	c.audit(ctx, moderation.Action{
		GuildID:       inv.msg.GuildID,
		ModeratorID:   inv.msg.AuthorID,
		Kind:          db.ActionKick,
		TargetID:      member.ID,
		TargetMention: member.Mention,
		Reason:        reason,
	})
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("✅ %s has been kicked. Reason: %s", inv.language), member.Mention, reason))
	return nil
}

func (c *Commands) ban(ctx context.Context, inv *invocation) error {
	userID, typed := inv.target()
	if userID == "" {
		c.usage(ctx, inv, "@user [reason]")
		return nil
	}
	reason := inv.reasonOrDefault()
	// Resolve before banning: a banned user is no longer a member.
	target := c.display(ctx, inv.msg.GuildID, userID, typed)

	if err := c.s.GetGateway().Ban(ctx, inv.msg.GuildID, userID, reason); err != nil {
		c.reply(ctx, inv, i18n.Get("❌ Failed to ban the user.", inv.language))
		return err
	}

	c.audit(ctx, moderation.Action{
		GuildID:       inv.msg.GuildID,
		ModeratorID:   inv.msg.AuthorID,
		Kind:          db.ActionBan,
		TargetID:      userID,
		TargetMention: target,
		Reason:        reason,
	})
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("✅ %s has been banned. Reason: %s", inv.language), target, reason))
	return nil
}

func (c *Commands) mute(ctx context.Context, inv *invocation) error {
	userID, typed := inv.target()
	if userID == "" || len(inv.args) == 0 {
		c.usage(ctx, inv, "@user <duration> [reason]")
		return nil
	}
	duration := inv.args[0]
	inv.args = inv.args[1:]
	reason := inv.reasonOrDefault()

	_, err := c.scheduler.Mute(ctx, moderation.MuteRequest{
		GuildID:     inv.msg.GuildID,
		UserID:      userID,
		ModeratorID: inv.msg.AuthorID,
		Duration:    duration,
		Reason:      reason,
	})
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrInvalidDuration):
		c.reply(ctx, inv, i18n.Get("❌ Invalid duration. Use a number followed by s, m, h or d.", inv.language))
		return nil
	case errors.Is(err, errors.ErrRoleNotFound):
		c.reply(ctx, inv, i18n.Get("❌ No role named \"muted\" exists in this server.", inv.language))
		return nil
	case errors.Is(err, errors.ErrMemberNotFound):
		c.reply(ctx, inv, i18n.Get("❌ That user is not a member of this server.", inv.language))
		return nil
	default:
		c.reply(ctx, inv, i18n.Get("❌ Failed to mute the user.", inv.language))
		return err
	}

	target := c.display(ctx, inv.msg.GuildID, userID, typed)
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("🔇 %s has been muted for %s. Reason: %s", inv.language), target, duration, reason))
	return nil
}

func (c *Commands) unmute(ctx context.Context, inv *invocation) error {
	userID, typed := inv.target()
	if userID == "" {
		c.usage(ctx, inv, "@user [reason]")
		return nil
	}

	err := c.scheduler.Unmute(ctx, inv.msg.GuildID, userID, inv.msg.AuthorID, inv.rest())
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrRoleNotFound):
		c.reply(ctx, inv, i18n.Get("❌ No role named \"muted\" exists in this server.", inv.language))
		return nil
	default:
		c.reply(ctx, inv, i18n.Get("❌ Failed to unmute the user.", inv.language))
		return err
	}

	target := c.display(ctx, inv.msg.GuildID, userID, typed)
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("🔊 %s has been unmuted.", inv.language), target))
	return nil
}

func (c *Commands) warn(ctx context.Context, inv *invocation) error {
	userID, typed := inv.target()
	reason := inv.rest()
	if userID == "" || reason == "" {
		c.usage(ctx, inv, "@user <reason>")
		return nil
	}

	err := c.store.AddWarning(ctx, &db.Warning{
		GuildID:   inv.msg.GuildID,
		UserID:    userID,
		WarnedBy:  inv.msg.AuthorID,
		Reason:    reason,
		CreatedAt: c.now().UnixMilli(),
	})
	if err != nil {
		c.reply(ctx, inv, i18n.Get("❌ Failed to warn the user.", inv.language))
		return err
	}

	target := c.display(ctx, inv.msg.GuildID, userID, typed)
	c.audit(ctx, moderation.Action{
		GuildID:       inv.msg.GuildID,
		ModeratorID:   inv.msg.AuthorID,
		Kind:          db.ActionWarn,
		TargetID:      userID,
		TargetMention: target,
		Reason:        reason,
	})
	if err := c.s.GetGateway().React(ctx, inv.msg.ChannelID, inv.msg.ID, warnEmoji); err != nil {
		c.getLogEntry().WithField("method", "warn").WithError(err).Debug("cant react to command")
	}
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("⚠️ %s has been warned. Reason: %s", inv.language), target, reason))
	return nil
}
