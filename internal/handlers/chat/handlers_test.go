package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/bot/bottest"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/db/sqlstore"
	"github.com/iamwavecut/ngmod/internal/handlers/moderation"
	"github.com/iamwavecut/ngmod/internal/policy/access"
)

const (
	guildID   = "g1"
	channelID = "c1"
	ownerID   = "owner"
	selfID    = "bot"
	mutedRole = "role-muted"
)

type env struct {
	gateway   *bottest.Gateway
	store     *sqlstore.Client
	service   bot.Service
	auditor   *moderation.Auditor
	scheduler *moderation.Scheduler
	gate      *access.Gate
	commands  *Commands
	seq       int
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store, err := sqlstore.NewSQLiteClient(context.Background(), t.TempDir(), "chat.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	gw := bottest.NewGateway(selfID)
	gw.AddGuild(guildID, bot.Role{ID: mutedRole, Name: "muted"})
	for _, id := range []string{ownerID, "u1", "u2"} {
		gw.AddMember(guildID, id)
	}

	service := bot.NewService(gw, store, "en")
	auditor := moderation.NewAuditor(store, gw, "en")
	scheduler := moderation.NewScheduler(store, gw, auditor)
	gate := access.NewGate(ownerID, store)

	return &env{
		gateway:   gw,
		store:     store,
		service:   service,
		auditor:   auditor,
		scheduler: scheduler,
		gate:      gate,
		commands:  NewCommands(service, gate, scheduler, auditor, "!"),
	}
}

func (e *env) message(author, text string, mentions ...string) *bot.Message {
	e.seq++
	return &bot.Message{
		ID:            fmt.Sprintf("m%d", e.seq),
		ChannelID:     channelID,
		GuildID:       guildID,
		AuthorID:      author,
		AuthorName:    "user" + author,
		AuthorMention: "<@" + author + ">",
		Text:          text,
		Mentions:      mentions,
		Timestamp:     time.Now(),
	}
}

// run sends text as author and returns the text of the bot's last reply.
func (e *env) run(t *testing.T, author, text string, mentions ...string) string {
	t.Helper()
	before := len(e.gateway.SentMessages())
	proceed, _ := e.commands.Handle(context.Background(), e.message(author, text, mentions...))
	if proceed {
		t.Fatalf("command %q must stop processing", text)
	}
	sent := e.gateway.SentMessages()
	if len(sent) == before {
		t.Fatalf("command %q sent no reply", text)
	}
	return sent[len(sent)-1].Message.Text
}

func (e *env) logs(t *testing.T) []db.ModerationLogEntry {
	t.Helper()
	entries, err := e.store.ListModerationLogs(context.Background(), guildID, 100)
	if err != nil {
		t.Fatalf("list moderation logs: %v", err)
	}
	return entries
}
