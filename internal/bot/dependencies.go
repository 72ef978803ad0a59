package bot

import (
	"context"

	"github.com/iamwavecut/ngmod/internal/db"
)

// Gateway is the chat transport. Lookups fail with the not-found errors of
// internal/errors, every other failure wraps errors.ErrTransport.
type Gateway interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// SelfID is the bot's own user id, used as the actor of automated actions.
	SelfID() string
	Updates(ctx context.Context) (<-chan *Message, error)

	ResolveMember(ctx context.Context, guildID, userID string) (*Member, error)
	// FindRole matches the role name case-insensitively.
	FindRole(ctx context.Context, guildID, name string) (*Role, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error

	DeleteMessage(ctx context.Context, channelID, messageID string) error
	Send(ctx context.Context, channelID string, msg OutgoingMessage) error
	React(ctx context.Context, channelID, messageID, emoji string) error
	Channel(ctx context.Context, channelID string) (*Channel, error)

	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
}

// Service bundles what handlers need from the running bot.
type Service interface {
	GetGateway() Gateway
	GetDB() db.Client
	GetLanguage(msg *Message) string
}

// Handler defines the interface for all update handlers in the system
type Handler interface {
	Handle(ctx context.Context, msg *Message) (proceed bool, err error)
}

type HandlerFunc func(ctx context.Context, msg *Message) (bool, error)

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) (bool, error) {
	return f(ctx, msg)
}
