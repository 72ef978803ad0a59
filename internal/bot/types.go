package bot

import "time"

type (
	// Message is an inbound chat message as seen by the moderation core.
	Message struct {
		ID            string
		ChannelID     string
		GuildID       string
		AuthorID      string
		AuthorName    string
		AuthorMention string
		AuthorIsBot   bool
		Language      string
		Text          string
		// Mentions holds mentioned user ids in order of appearance.
		Mentions  []string
		Timestamp time.Time
	}

	Member struct {
		ID          string
		GuildID     string
		DisplayName string
		Mention     string
		RoleIDs     []string
	}

	Role struct {
		ID   string
		Name string
	}

	Channel struct {
		ID      string
		GuildID string
		Name    string
		// Text is set for channels that accept text messages.
		Text bool
	}

	OutgoingMessage struct {
		Text    string
		Embed   *Embed
		ReplyTo string
	}

	Embed struct {
		Title       string
		Description string
		Fields      []EmbedField
		Color       int
		Timestamp   time.Time
	}

	EmbedField struct {
		Name   string
		Value  string
		Inline bool
	}
)

func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// IsGuildMessage reports whether the message came from a guild rather than a direct chat.
func (m *Message) IsGuildMessage() bool {
	return m != nil && m.GuildID != ""
}
