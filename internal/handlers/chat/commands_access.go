package handlers

import (
	"context"
	"fmt"

	"github.com/iamwavecut/ngmod/internal/errors"
	"github.com/iamwavecut/ngmod/internal/i18n"
)

func (c *Commands) allow(ctx context.Context, inv *invocation) error {
	if !c.gate.IsOwner(inv.msg.AuthorID) {
		c.reply(ctx, inv, i18n.Get("❌ Only the bot owner can do that.", inv.language))
		return nil
	}
	userID, typed := inv.target()
	if userID == "" {
		c.usage(ctx, inv, "@user")
		return nil
	}

	if err := c.gate.Allow(ctx, inv.msg.AuthorID, userID); err != nil {
		if errors.Is(err, errors.ErrValidation) {
			c.usage(ctx, inv, "@user")
			return nil
		}
		c.reply(ctx, inv, i18n.Get("❌ Failed to authorize user.", inv.language))
		return err
	}
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("✅ Authorized %s to use the bot.", inv.language), c.display(ctx, inv.msg.GuildID, userID, typed)))
	return nil
}

func (c *Commands) disallow(ctx context.Context, inv *invocation) error {
	if !c.gate.IsOwner(inv.msg.AuthorID) {
		c.reply(ctx, inv, i18n.Get("❌ Only the bot owner can do that.", inv.language))
		return nil
	}
	userID, typed := inv.target()
	if userID == "" {
		c.usage(ctx, inv, "@user")
		return nil
	}

	if err := c.gate.Revoke(ctx, inv.msg.AuthorID, userID); err != nil {
		if errors.Is(err, errors.ErrValidation) {
			c.usage(ctx, inv, "@user")
			return nil
		}
		c.reply(ctx, inv, i18n.Get("❌ Failed to remove user access.", inv.language))
		return err
	}
	c.reply(ctx, inv, fmt.Sprintf(i18n.Get("✅ Revoked access from %s.", inv.language), c.display(ctx, inv.msg.GuildID, userID, typed)))
	return nil
}
