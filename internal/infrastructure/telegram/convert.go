package telegram

import (
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/policy/permissions"
)

const (
	mutedRoleID   = "restricted"
	mutedRoleName = "muted"
)

func isGroup(chatType string) bool {
	return tool.In(chatType, "group", "supergroup")
}

func isMutedRole(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), mutedRoleName)
}

func canRestrict(self *api.ChatMember) bool {
	return permissions.CanModerate(self)
}

// convertMessage flattens a Bot API message. Group chats become guilds;
// private chats keep an empty guild id and are ignored upstream.
func convertMessage(msg *api.Message, chat *api.Chat, from *api.User) *bot.Message {
	if msg == nil || chat == nil || from == nil {
		return nil
	}
	chatID := strconv.FormatInt(chat.ID, 10)
	out := &bot.Message{
		ID:            strconv.Itoa(msg.MessageID),
		ChannelID:     chatID,
		AuthorID:      strconv.FormatInt(from.ID, 10),
		AuthorName:    fullName(from),
		AuthorMention: mention(from),
		AuthorIsBot:   from.IsBot,
		Language:      language(from.LanguageCode),
		Text:          extractContent(msg),
		Mentions:      mentionedUsers(msg),
		Timestamp:     time.Unix(int64(msg.Date), 0),
	}
	if isGroup(chat.Type) {
		out.GuildID = chatID
	}
	return out
}

// extractContent joins everything a user can read in the message: text,
// caption, hidden link targets and inline button labels.
func extractContent(msg *api.Message) string {
	parts := []string{msg.Text, msg.Caption}
	for _, entities := range [][]api.MessageEntity{msg.Entities, msg.CaptionEntities} {
		for _, e := range entities {
			if e.Type == "text_link" && e.URL != "" {
				parts = append(parts, e.URL)
			}
		}
	}
	if msg.ReplyMarkup != nil {
		for _, row := range msg.ReplyMarkup.InlineKeyboard {
			for _, button := range row {
				parts = append(parts, button.Text)
			}
		}
	}

	var b strings.Builder
	for _, p := range parts {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// mentionedUsers returns users Telegram resolved for us: text mentions of
// users without a username, then the author of the replied-to message.
// Plain @username mentions carry no id and cannot be resolved.
func mentionedUsers(msg *api.Message) []string {
	var ids []string
	for _, e := range msg.Entities {
		if e.Type == "text_mention" && e.User != nil {
			ids = append(ids, strconv.FormatInt(e.User.ID, 10))
		}
	}
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		ids = append(ids, strconv.FormatInt(msg.ReplyToMessage.From.ID, 10))
	}
	return ids
}

func convertMember(guildID string, m *api.ChatMember) *bot.Member {
	member := &bot.Member{GuildID: guildID}
	if m.User != nil {
		member.ID = strconv.FormatInt(m.User.ID, 10)
		member.DisplayName = fullName(m.User)
		member.Mention = mention(m.User)
	}
	if m.Status == "restricted" && !m.CanSendMessages {
		member.RoleIDs = []string{mutedRoleID}
	}
	return member
}

func convertOutgoing(chatID int64, msg bot.OutgoingMessage) api.MessageConfig {
	text := msg.Text
	if msg.Embed != nil {
		text = strings.TrimSpace(text + "\n" + renderEmbed(msg.Embed))
	}
	out := api.NewMessage(chatID, text)
	out.DisableNotification = msg.Embed != nil
	if msg.ReplyTo != "" {
		if mid, err := strconv.Atoi(msg.ReplyTo); err == nil {
			out.ReplyParameters.MessageID = mid
			out.ReplyParameters.AllowSendingWithoutReply = true
		}
	}
	return out
}

// renderEmbed lays an embed out as plain text, one field per line.
func renderEmbed(e *bot.Embed) string {
	lines := make([]string, 0, len(e.Fields)+2)
	if e.Title != "" {
		lines = append(lines, e.Title)
	}
	if e.Description != "" {
		lines = append(lines, e.Description)
	}
	for _, f := range e.Fields {
		lines = append(lines, f.Name+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}

func mention(user *api.User) string {
	if user.UserName != "" {
		return "@" + user.UserName
	}
	return fullName(user)
}

func fullName(user *api.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}

func language(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}
