package discord

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/errors"
)

func convertMessage(m *discordgo.Message) *bot.Message {
	if m.Author == nil {
		return nil
	}
	msg := &bot.Message{
		ID:            m.ID,
		ChannelID:     m.ChannelID,
		GuildID:       m.GuildID,
		AuthorID:      m.Author.ID,
		AuthorName:    m.Author.Username,
		AuthorMention: m.Author.Mention(),
		AuthorIsBot:   m.Author.Bot,
		Language:      languageFromLocale(m.Author.Locale),
		Text:          m.Content,
		Timestamp:     m.Timestamp,
	}
	if m.Member != nil && m.Member.Nick != "" {
		msg.AuthorName = m.Member.Nick
	}
	for _, u := range m.Mentions {
		if u != nil {
			msg.Mentions = append(msg.Mentions, u.ID)
		}
	}
	return msg
}

// languageFromLocale maps discord locales such as "uk" or "en-US" to a bare
// language code.
func languageFromLocale(locale string) string {
	if i := strings.IndexByte(locale, '-'); i > 0 {
		locale = locale[:i]
	}
	return strings.ToLower(locale)
}

func convertMember(guildID string, m *discordgo.Member) *bot.Member {
	member := &bot.Member{
		GuildID: guildID,
		RoleIDs: append([]string(nil), m.Roles...),
	}
	if m.User != nil {
		member.ID = m.User.ID
		member.DisplayName = m.User.Username
		member.Mention = m.User.Mention()
	}
	if m.Nick != "" {
		member.DisplayName = m.Nick
	}
	return member
}

func findRole(roles []*discordgo.Role, name string) *bot.Role {
	for _, r := range roles {
		if r != nil && strings.EqualFold(r.Name, name) {
			return &bot.Role{ID: r.ID, Name: r.Name}
		}
	}
	return nil
}

func convertChannel(ch *discordgo.Channel) *bot.Channel {
	text := false
	switch ch.Type {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		text = true
	}
	return &bot.Channel{
		ID:      ch.ID,
		GuildID: ch.GuildID,
		Name:    ch.Name,
		Text:    text,
	}
}

func convertOutgoing(channelID string, msg bot.OutgoingMessage) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:         msg.Text,
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
	}
	if msg.ReplyTo != "" {
		failIfNotExists := false
		send.Reference = &discordgo.MessageReference{
			MessageID:       msg.ReplyTo,
			ChannelID:       channelID,
			FailIfNotExists: &failIfNotExists,
		}
	}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{convertEmbed(msg.Embed)}
	}
	return send
}

func convertEmbed(e *bot.Embed) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if !e.Timestamp.IsZero() {
		embed.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}

// classify maps REST failures onto the gateway error contract.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
				return errors.ErrMemberNotFound
			case discordgo.ErrCodeUnknownGuild:
				return errors.ErrGuildNotFound
			case discordgo.ErrCodeUnknownChannel:
				return errors.ErrChannelNotFound
			case discordgo.ErrCodeUnknownRole:
				return errors.ErrRoleNotFound
			}
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return errors.Transport(op, errors.ErrNotFound)
		}
	}
	return errors.Transport(op, err)
}
