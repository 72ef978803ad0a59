package telegram

import (
	"context"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/errors"
)

// request waits for the limiter, then performs a Bot API call.
func (g *Gateway) request(ctx context.Context, op string, c api.Chattable) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return errors.Transport(op, err)
	}
	if _, err := g.bot.Request(c); err != nil {
		return classify(op, err)
	}
	return nil
}

func (g *Gateway) send(ctx context.Context, c api.Chattable) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return errors.Transport("send message", err)
	}
	if _, err := g.bot.Send(c); err != nil {
		return classify("send message", err)
	}
	return nil
}

func (g *Gateway) chatMember(ctx context.Context, chatID, userID int64) (api.ChatMember, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return api.ChatMember{}, errors.Transport("get chat member", err)
	}
	member, err := g.bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	})
	if err != nil {
		return api.ChatMember{}, classify("get chat member", err)
	}
	return member, nil
}

func (g *Gateway) chat(ctx context.Context, chatID int64) (*bot.Channel, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, errors.Transport("get chat", err)
	}
	info, err := g.bot.GetChat(api.ChatInfoConfig{
		ChatConfig: api.ChatConfig{
			ChatID: chatID,
		},
	})
	if err != nil {
		if errors.Is(classify("get chat", err), errors.ErrNotFound) {
			return nil, errors.ErrChannelNotFound
		}
		return nil, classify("get chat", err)
	}
	id := strconv.FormatInt(chatID, 10)
	return &bot.Channel{
		ID:      id,
		GuildID: id,
		Name:    info.Title,
		Text:    isGroup(info.Type),
	}, nil
}

func (g *Gateway) deleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return g.request(ctx, "delete message", api.NewDeleteMessage(chatID, messageID))
}

func (g *Gateway) react(ctx context.Context, chatID int64, messageID int, emoji string) error {
	return g.request(ctx, "set reaction", api.NewSetMessageReaction(chatID, messageID, []api.ReactionType{{
		Type:  "emoji",
		Emoji: emoji,
	}}, false))
}

// restrict revokes every send permission until lifted; expiry is driven by
// the sanction sweep, not by Telegram.
func (g *Gateway) restrict(ctx context.Context, chatID, userID int64) error {
	return g.request(ctx, "restrict member", api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		Permissions: sendPermissions(false),
	})
}

func (g *Gateway) unrestrict(ctx context.Context, chatID, userID int64) error {
	return g.request(ctx, "unrestrict member", api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		Permissions: sendPermissions(true),
	})
}

func (g *Gateway) ban(ctx context.Context, chatID, userID int64) error {
	return g.request(ctx, "ban member", api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		RevokeMessages: true,
	})
}

func (g *Gateway) unban(ctx context.Context, chatID, userID int64) error {
	return g.request(ctx, "unban member", api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		OnlyIfBanned: true,
	})
}

func sendPermissions(allowed bool) *api.ChatPermissions {
	return &api.ChatPermissions{
		CanSendMessages:       allowed,
		CanSendAudios:         allowed,
		CanSendDocuments:      allowed,
		CanSendPhotos:         allowed,
		CanSendVideos:         allowed,
		CanSendVideoNotes:     allowed,
		CanSendVoiceNotes:     allowed,
		CanSendPolls:          allowed,
		CanSendOtherMessages:  allowed,
		CanAddWebPagePreviews: allowed,
	}
}

// classify maps Bot API failures onto the gateway error contract. The API
// reports missing users and chats only through its description text.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	desc := strings.ToLower(err.Error())
	switch {
	case strings.Contains(desc, "user not found"),
		strings.Contains(desc, "participant_id_invalid"),
		strings.Contains(desc, "user_not_participant"):
		return errors.ErrMemberNotFound
	case strings.Contains(desc, "chat not found"):
		return errors.ErrGuildNotFound
	}
	return errors.Transport(op, err)
}
