// Package discord implements bot.Gateway on top of a discordgo session.
package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/errors"
)

const (
	updatesBuffer = 100

	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
)

type Gateway struct {
	session *discordgo.Session

	runMutex      sync.Mutex
	started       bool
	runCtx        context.Context
	runCancel     context.CancelFunc
	removeHandler func()
	updates       chan *bot.Message
	selfID        string
}

var _ bot.Gateway = (*Gateway)(nil)

func NewGateway(token string) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Transport("create discord session", err)
	}
	session.Identify.Intents = intents
	return &Gateway{
		session: session,
		updates: make(chan *bot.Message, updatesBuffer),
	}, nil
}

func (g *Gateway) getLogEntry() *log.Entry {
	return log.WithField("object", "DiscordGateway")
}

func (g *Gateway) Start(ctx context.Context) error {
	g.runMutex.Lock()
	defer g.runMutex.Unlock()
	if g.started {
		return nil
	}

	g.runCtx, g.runCancel = context.WithCancel(ctx)
	g.removeHandler = g.session.AddHandler(g.onMessageCreate)
	if err := g.session.Open(); err != nil {
		g.removeHandler()
		g.runCancel()
		return errors.Transport("open discord session", err)
	}
	if g.session.State != nil && g.session.State.User != nil {
		g.selfID = g.session.State.User.ID
	}
	g.getLogEntry().WithField("self_id", g.selfID).Info("connected to discord")

	g.started = true
	return nil
}

func (g *Gateway) Stop(ctx context.Context) error {
	g.runMutex.Lock()
	defer g.runMutex.Unlock()
	if !g.started {
		return nil
	}
	g.started = false
	g.runCancel()
	g.removeHandler()
	if err := g.session.Close(); err != nil {
		return errors.Transport("close discord session", err)
	}
	return nil
}

// SelfID falls back to a REST lookup when the session was never opened.
func (g *Gateway) SelfID() string {
	g.runMutex.Lock()
	defer g.runMutex.Unlock()
	if g.selfID == "" {
		user, err := g.session.User("@me")
		if err != nil {
			g.getLogEntry().WithError(err).Warn("cant resolve bot user")
			return ""
		}
		g.selfID = user.ID
	}
	return g.selfID
}

func (g *Gateway) Updates(context.Context) (<-chan *bot.Message, error) {
	return g.updates, nil
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	msg := convertMessage(m.Message)
	if msg == nil {
		return
	}

	g.runMutex.Lock()
	runCtx := g.runCtx
	g.runMutex.Unlock()

	select {
	case g.updates <- msg:
	case <-runCtx.Done():
	}
}

func (g *Gateway) ResolveMember(ctx context.Context, guildID, userID string) (*bot.Member, error) {
	member, err := g.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("resolve member", err)
	}
	return convertMember(guildID, member), nil
}

func (g *Gateway) FindRole(ctx context.Context, guildID, name string) (*bot.Role, error) {
	roles, err := g.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("list roles", err)
	}
	if role := findRole(roles, name); role != nil {
		return role, nil
	}
	return nil, errors.ErrRoleNotFound
}

func (g *Gateway) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	err := g.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	return classify("add role", err)
}

func (g *Gateway) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	err := g.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	return classify("remove role", err)
}

func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := g.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	return classify("delete message", err)
}

func (g *Gateway) Send(ctx context.Context, channelID string, msg bot.OutgoingMessage) error {
	_, err := g.session.ChannelMessageSendComplex(channelID, convertOutgoing(channelID, msg), discordgo.WithContext(ctx))
	return classify("send message", err)
}

func (g *Gateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	err := g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
	return classify("add reaction", err)
}

func (g *Gateway) Channel(ctx context.Context, channelID string) (*bot.Channel, error) {
	ch, err := g.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("get channel", err)
	}
	return convertChannel(ch), nil
}

func (g *Gateway) Kick(ctx context.Context, guildID, userID, reason string) error {
	err := g.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
	return classify("kick member", err)
}

func (g *Gateway) Ban(ctx context.Context, guildID, userID, reason string) error {
	err := g.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
	return classify("ban member", err)
}
