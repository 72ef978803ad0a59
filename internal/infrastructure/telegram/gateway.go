// Package telegram implements bot.Gateway over the Bot API. A group chat
// plays the guild and the channel at once, the "muted" role is a full
// send restriction, and a kick is a ban followed by an unban.
package telegram

import (
	"context"
	"strconv"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/errors"
)

const (
	pollTimeout   = 10
	updatesBuffer = 100

	// Bot API allows about 30 requests per second per bot.
	requestsPerSecond = 25
	requestsBurst     = 5
)

type Gateway struct {
	bot     *api.BotAPI
	limiter *rate.Limiter

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	wg        sync.WaitGroup
	updates   chan *bot.Message
}

var _ bot.Gateway = (*Gateway)(nil)

func NewGateway(token string) (*Gateway, error) {
	botAPI, err := api.NewBotAPI(token)
	if err != nil {
		return nil, errors.Transport("create telegram client", err)
	}
	return &Gateway{
		bot:     botAPI,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsBurst),
		updates: make(chan *bot.Message, updatesBuffer),
	}, nil
}

func (g *Gateway) getLogEntry() *log.Entry {
	return log.WithField("object", "TelegramGateway")
}

func (g *Gateway) Start(ctx context.Context) error {
	g.runMutex.Lock()
	defer g.runMutex.Unlock()
	if g.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.runCancel = cancel

	config := api.NewUpdate(0)
	config.Timeout = pollTimeout
	config.AllowedUpdates = []string{"message"}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.poll(runCtx, config)
	}()

	g.getLogEntry().WithField("username", g.bot.Self.UserName).Info("polling telegram updates")
	g.started = true
	return nil
}

// poll long-polls getUpdates until ctx is done, backing off on errors.
func (g *Gateway) poll(ctx context.Context, config api.UpdateConfig) {
	entry := g.getLogEntry().WithField("method", "poll")
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := g.bot.GetUpdates(config)
		if err != nil {
			entry.WithError(err).Warn("cant get updates")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, time.Minute)
			continue
		}
		backoff = time.Second

		for _, update := range updates {
			if update.UpdateID < config.Offset {
				continue
			}
			config.Offset = update.UpdateID + 1
			msg := convertMessage(update.Message, update.FromChat(), update.SentFrom())
			if msg == nil {
				continue
			}
			select {
			case g.updates <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (g *Gateway) Stop(ctx context.Context) error {
	g.runMutex.Lock()
	if !g.started {
		g.runMutex.Unlock()
		return nil
	}
	g.started = false
	cancel := g.runCancel
	g.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (g *Gateway) SelfID() string {
	return strconv.FormatInt(g.bot.Self.ID, 10)
}

func (g *Gateway) Updates(context.Context) (<-chan *bot.Message, error) {
	return g.updates, nil
}

func (g *Gateway) ResolveMember(ctx context.Context, guildID, userID string) (*bot.Member, error) {
	chatID, uid, err := parseIDs(guildID, userID)
	if err != nil {
		return nil, err
	}
	member, err := g.chatMember(ctx, chatID, uid)
	if err != nil {
		return nil, err
	}
	if member.HasLeft() || member.WasKicked() {
		return nil, errors.ErrMemberNotFound
	}
	return convertMember(guildID, &member), nil
}

func (g *Gateway) FindRole(ctx context.Context, guildID, name string) (*bot.Role, error) {
	chatID, err := parseID(guildID, errors.ErrGuildNotFound)
	if err != nil {
		return nil, err
	}
	if !isMutedRole(name) {
		return nil, errors.ErrRoleNotFound
	}
	// The role only exists where the bot is allowed to restrict members.
	self, err := g.chatMember(ctx, chatID, g.bot.Self.ID)
	if err != nil {
		return nil, err
	}
	if !canRestrict(&self) {
		return nil, errors.ErrRoleNotFound
	}
	return &bot.Role{ID: mutedRoleID, Name: mutedRoleName}, nil
}

func (g *Gateway) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if roleID != mutedRoleID {
		return errors.ErrRoleNotFound
	}
	chatID, uid, err := parseIDs(guildID, userID)
	if err != nil {
		return err
	}
	return g.restrict(ctx, chatID, uid)
}

func (g *Gateway) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	if roleID != mutedRoleID {
		return errors.ErrRoleNotFound
	}
	chatID, uid, err := parseIDs(guildID, userID)
	if err != nil {
		return err
	}
	return g.unrestrict(ctx, chatID, uid)
}

func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	chatID, err := parseID(channelID, errors.ErrChannelNotFound)
	if err != nil {
		return err
	}
	mid, err := strconv.Atoi(messageID)
	if err != nil {
		return errors.Transport("delete message", err)
	}
	return g.deleteMessage(ctx, chatID, mid)
}

func (g *Gateway) Send(ctx context.Context, channelID string, msg bot.OutgoingMessage) error {
	chatID, err := parseID(channelID, errors.ErrChannelNotFound)
	if err != nil {
		return err
	}
	return g.send(ctx, convertOutgoing(chatID, msg))
}

func (g *Gateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	chatID, err := parseID(channelID, errors.ErrChannelNotFound)
	if err != nil {
		return err
	}
	mid, err := strconv.Atoi(messageID)
	if err != nil {
		return errors.Transport("react", err)
	}
	return g.react(ctx, chatID, mid, emoji)
}

func (g *Gateway) Channel(ctx context.Context, channelID string) (*bot.Channel, error) {
	chatID, err := parseID(channelID, errors.ErrChannelNotFound)
	if err != nil {
		return nil, err
	}
	return g.chat(ctx, chatID)
}

func (g *Gateway) Kick(ctx context.Context, guildID, userID, _ string) error {
	chatID, uid, err := parseIDs(guildID, userID)
	if err != nil {
		return err
	}
	if err := g.ban(ctx, chatID, uid); err != nil {
		return err
	}
	return g.unban(ctx, chatID, uid)
}

func (g *Gateway) Ban(ctx context.Context, guildID, userID, _ string) error {
	chatID, uid, err := parseIDs(guildID, userID)
	if err != nil {
		return err
	}
	return g.ban(ctx, chatID, uid)
}

func parseID(id string, notFound error) (int64, error) {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, notFound
	}
	return v, nil
}

func parseIDs(guildID, userID string) (int64, int64, error) {
	chatID, err := parseID(guildID, errors.ErrGuildNotFound)
	if err != nil {
		return 0, 0, err
	}
	uid, err := parseID(userID, errors.ErrMemberNotFound)
	if err != nil {
		return 0, 0, err
	}
	return chatID, uid, nil
}
