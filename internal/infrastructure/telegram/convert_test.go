package telegram

import (
	"errors"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/ngmod/internal/bot"
	ngerrors "github.com/iamwavecut/ngmod/internal/errors"
)

func TestConvertMessage(t *testing.T) {
	t.Parallel()

	from := &api.User{ID: 42, FirstName: "Ann", LastName: "Lee", UserName: "ann", LanguageCode: "uk-UA"}
	msg := &api.Message{
		MessageID: 7,
		Date:      1_700_000_000,
		Text:      "/mute@ngmod_bot 10m flood",
		Entities: []api.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 15},
			{Type: "text_mention", User: &api.User{ID: 99, FirstName: "Bob"}},
		},
		ReplyToMessage: &api.Message{From: &api.User{ID: 100}},
	}

	got := convertMessage(msg, &api.Chat{ID: -1001, Type: "supergroup"}, from)
	if got.ID != "7" || got.ChannelID != "-1001" || got.GuildID != "-1001" {
		t.Fatalf("unexpected ids %#v", got)
	}
	if got.AuthorID != "42" || got.AuthorName != "Ann Lee" || got.AuthorMention != "@ann" || got.Language != "uk" {
		t.Fatalf("unexpected author %#v", got)
	}
	if !got.Timestamp.Equal(time.Unix(1_700_000_000, 0)) {
		t.Fatalf("unexpected timestamp %v", got.Timestamp)
	}
	if len(got.Mentions) != 2 || got.Mentions[0] != "99" || got.Mentions[1] != "100" {
		t.Fatalf("unexpected mentions %v", got.Mentions)
	}

	private := convertMessage(msg, &api.Chat{ID: 42, Type: "private"}, from)
	if private.IsGuildMessage() {
		t.Fatal("private chats are not guild messages")
	}
	if convertMessage(msg, nil, from) != nil || convertMessage(nil, &api.Chat{}, from) != nil {
		t.Fatal("incomplete updates must be dropped")
	}
}

func TestExtractContent(t *testing.T) {
	t.Parallel()

	msg := &api.Message{
		Caption: "  see photo ",
		CaptionEntities: []api.MessageEntity{
			{Type: "text_link", URL: "https://scam.example/free"},
			{Type: "bold"},
		},
		ReplyMarkup: &api.InlineKeyboardMarkup{
			InlineKeyboard: [][]api.InlineKeyboardButton{{{Text: "Claim prize"}}},
		},
	}

	want := "see photo https://scam.example/free Claim prize"
	if got := extractContent(msg); got != want {
		t.Fatalf("extractContent = %q, want %q", got, want)
	}
}

func TestConvertOutgoingRendersEmbed(t *testing.T) {
	t.Parallel()

	out := convertOutgoing(-1001, bot.OutgoingMessage{
		ReplyTo: "12",
		Embed: &bot.Embed{
			Title:       "Moderation action",
			Description: "MUTE → @ann",
			Fields:      []bot.EmbedField{{Name: "Reason", Value: "flood"}},
		},
	})

	if out.Text != "Moderation action\nMUTE → @ann\nReason: flood" {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.ReplyParameters.MessageID != 12 || !out.ReplyParameters.AllowSendingWithoutReply {
		t.Fatalf("unexpected reply parameters %#v", out.ReplyParameters)
	}
	if !out.DisableNotification {
		t.Fatal("notifications must be silent")
	}
}

func TestConvertMemberMarksRestricted(t *testing.T) {
	t.Parallel()

	m := convertMember("-1", &api.ChatMember{Status: "restricted", User: &api.User{ID: 5, FirstName: "Eve"}})
	if m.ID != "5" || m.Mention != "Eve" || !m.HasRole(mutedRoleID) {
		t.Fatalf("unexpected member %#v", m)
	}
	if convertMember("-1", &api.ChatMember{Status: "member", User: &api.User{ID: 5}}).HasRole(mutedRoleID) {
		t.Fatal("regular members are not muted")
	}
}

func TestMutedRoleName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"muted", "Muted", " MUTED "} {
		if !isMutedRole(name) {
			t.Fatalf("%q must match the muted role", name)
		}
	}
	if isMutedRole("admin") {
		t.Fatal("only the muted role exists")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		want error
	}{
		{"Bad Request: user not found", ngerrors.ErrMemberNotFound},
		{"Bad Request: PARTICIPANT_ID_INVALID", ngerrors.ErrMemberNotFound},
		{"Bad Request: chat not found", ngerrors.ErrGuildNotFound},
		{"Forbidden: bot was kicked from the supergroup chat", ngerrors.ErrTransport},
	}
	for _, tt := range tests {
		if got := classify("op", errors.New(tt.desc)); !ngerrors.Is(got, tt.want) {
			t.Fatalf("classify(%q) = %v, want %v", tt.desc, got, tt.want)
		}
	}
	if classify("op", nil) != nil {
		t.Fatal("nil stays nil")
	}
}

func TestParseIDs(t *testing.T) {
	t.Parallel()

	if _, _, err := parseIDs("abc", "1"); !ngerrors.Is(err, ngerrors.ErrGuildNotFound) {
		t.Fatalf("expected guild not found, got %v", err)
	}
	if _, _, err := parseIDs("-100", "x"); !ngerrors.Is(err, ngerrors.ErrMemberNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
	chatID, userID, err := parseIDs("-100", "7")
	if err != nil || chatID != -100 || userID != 7 {
		t.Fatalf("unexpected ids %d %d %v", chatID, userID, err)
	}
}
