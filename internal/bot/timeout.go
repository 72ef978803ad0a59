package bot

import (
	"context"
	"time"
)

type timeoutGateway struct {
	Gateway
	timeout time.Duration
}

// WithTimeout bounds every gateway call with its own deadline. Lifecycle
// calls and the update stream are passed through unchanged.
func WithTimeout(gw Gateway, timeout time.Duration) Gateway {
	if timeout <= 0 {
		return gw
	}
	return &timeoutGateway{Gateway: gw, timeout: timeout}
}

func (g *timeoutGateway) ResolveMember(ctx context.Context, guildID, userID string) (*Member, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.ResolveMember(ctx, guildID, userID)
}

func (g *timeoutGateway) FindRole(ctx context.Context, guildID, name string) (*Role, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.FindRole(ctx, guildID, name)
}

func (g *timeoutGateway) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.AddRole(ctx, guildID, userID, roleID)
}

func (g *timeoutGateway) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.RemoveRole(ctx, guildID, userID, roleID)
}

func (g *timeoutGateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.DeleteMessage(ctx, channelID, messageID)
}

func (g *timeoutGateway) Send(ctx context.Context, channelID string, msg OutgoingMessage) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.Send(ctx, channelID, msg)
}

func (g *timeoutGateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.React(ctx, channelID, messageID, emoji)
}

func (g *timeoutGateway) Channel(ctx context.Context, channelID string) (*Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.Channel(ctx, channelID)
}

func (g *timeoutGateway) Kick(ctx context.Context, guildID, userID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.Kick(ctx, guildID, userID, reason)
}

func (g *timeoutGateway) Ban(ctx context.Context, guildID, userID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Gateway.Ban(ctx, guildID, userID, reason)
}
