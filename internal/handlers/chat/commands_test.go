package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
)

func TestCommandsIgnoreOrdinaryMessages(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	for _, text := range []string{"hello", "!", "!unknown thing", "kick <@u1>"} {
		proceed, err := e.commands.Handle(context.Background(), e.message("u1", text))
		if err != nil || !proceed {
			t.Fatalf("%q must pass through, got %v %v", text, proceed, err)
		}
	}
	if len(e.gateway.SentMessages()) != 0 {
		t.Fatal("no replies expected")
	}
}

func TestCommandsRejectUnauthorizedAuthors(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	reply := e.run(t, "u1", "!kick <@u2> because")
	if !strings.Contains(reply, "not authorized") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(e.gateway.Kicked) != 0 || len(e.logs(t)) != 0 {
		t.Fatal("denied command must have no side effects and no audit entry")
	}
}

func TestAllowlistCommands(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if reply := e.run(t, ownerID, "!allow"); !strings.HasPrefix(reply, "Usage: `!allow @user`") {
		t.Fatalf("unexpected usage reply %q", reply)
	}
	if reply := e.run(t, ownerID, "!allow <@u1>"); !strings.Contains(reply, "Authorized <@u1>") {
		t.Fatalf("unexpected reply %q", reply)
	}

	if reply := e.run(t, "u1", "!allow <@u2>"); !strings.Contains(reply, "Only the bot owner") {
		t.Fatalf("allowlisted user must not grant access, got %q", reply)
	}

	if reply := e.run(t, "u1", "!kick <@u2> flooding"); !strings.Contains(reply, "has been kicked") {
		t.Fatalf("allowlisted user must be able to kick, got %q", reply)
	}

	if reply := e.run(t, ownerID, "!disallow <@u1>"); !strings.Contains(reply, "Revoked access from <@u1>") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := e.run(t, "u1", "!modlog"); !strings.Contains(reply, "not authorized") {
		t.Fatalf("revoked user must be denied, got %q", reply)
	}
}

func TestKickAndBan(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	reply := e.run(t, ownerID, "!kick <@u1>")
	if reply != "✅ <@u1> has been kicked. Reason: No reason provided" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(e.gateway.Kicked) != 1 || e.gateway.Kicked[0] != guildID+"/u1" {
		t.Fatalf("unexpected kicks %v", e.gateway.Kicked)
	}

	if reply := e.run(t, ownerID, "!kick <@u1>"); !strings.Contains(reply, "not a member") {
		t.Fatalf("kicking a departed user must say so, got %q", reply)
	}

	if reply := e.run(t, ownerID, "!ban <@u2> scam links"); reply != "✅ <@u2> has been banned. Reason: scam links" {
		t.Fatalf("unexpected reply %q", reply)
	}

	entries := e.logs(t)
	if len(entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(entries))
	}
	if entries[0].Action != db.ActionBan || entries[0].Reason != "scam links" || entries[0].ModeratorID != ownerID {
		t.Fatalf("unexpected newest entry %#v", entries[0])
	}
	if entries[1].Action != db.ActionKick || entries[1].TargetID != "u1" {
		t.Fatalf("unexpected oldest entry %#v", entries[1])
	}
}

func TestMuteCommands(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	if reply := e.run(t, ownerID, "!mute <@u1>"); !strings.HasPrefix(reply, "Usage:") {
		t.Fatalf("missing duration must print usage, got %q", reply)
	}
	if reply := e.run(t, ownerID, "!mute <@u1> forever"); !strings.Contains(reply, "Invalid duration") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := e.run(t, ownerID, "!mute <@ghost> 5m"); !strings.Contains(reply, "not a member") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(e.logs(t)) != 0 {
		t.Fatal("rejected mutes must not be audited")
	}

	reply := e.run(t, ownerID, "!mute <@u1> 10m flooding the chat")
	if reply != "🔇 <@u1> has been muted for 10m. Reason: flooding the chat" {
		t.Fatalf("unexpected reply %q", reply)
	}
	sanction, err := e.store.GetActiveSanction(context.Background(), guildID, "u1")
	if err != nil || sanction == nil || sanction.MutedBy != ownerID {
		t.Fatalf("expected active sanction, got %#v %v", sanction, err)
	}

	if reply := e.run(t, ownerID, "!unmute <@u1>"); reply != "🔊 <@u1> has been unmuted." {
		t.Fatalf("unexpected reply %q", reply)
	}
	for _, role := range e.gateway.MemberRoles(guildID, "u1") {
		if role == mutedRole {
			t.Fatal("muted role must be removed")
		}
	}
}

func TestMuteWithoutMutedRole(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.gateway.Roles[guildID] = []bot.Role{{ID: "r1", Name: "member"}}

	if reply := e.run(t, ownerID, "!mute <@u1> 5m"); !strings.Contains(reply, `No role named "muted"`) {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := e.run(t, ownerID, "!unmute <@u1>"); !strings.Contains(reply, `No role named "muted"`) {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestReplyTargetFromMentions(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	reply := e.run(t, ownerID, "!mute@ngmod_bot 1h spam", "u2")
	if reply != "🔇 <@u2> has been muted for 1h. Reason: spam" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestNumericReasonKeepsMentionedTarget(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	reply := e.run(t, ownerID, "!warn 3 times spamming", "u2")
	if reply != "⚠️ <@u2> has been warned. Reason: 3 times spamming" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestCommandErrorNamesCommand(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if err := e.store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	proceed, err := e.commands.Handle(context.Background(), e.message(ownerID, "!warn <@u1> flood"))
	if proceed {
		t.Fatal("failed command must stop processing")
	}
	if !errors.Is(err, errors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "command warn: ") {
		t.Fatalf("error must name the command, got %q", err)
	}
}

func TestWarnings(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	if reply := e.run(t, ownerID, "!warnings <@u1>"); reply != "📭 No warnings found for <@u1>." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := e.run(t, ownerID, "!warn <@u1>"); !strings.HasPrefix(reply, "Usage: `!warn @user <reason>`") {
		t.Fatalf("warn without reason must print usage, got %q", reply)
	}

	if reply := e.run(t, ownerID, "!warn <@u1> first"); reply != "⚠️ <@u1> has been warned. Reason: first" {
		t.Fatalf("unexpected reply %q", reply)
	}
	e.run(t, ownerID, "!warn <@u1> second")

	if len(e.gateway.Reactions) != 2 || e.gateway.Reactions[0].Emoji != "⚠️" {
		t.Fatalf("warn must react to the command, got %#v", e.gateway.Reactions)
	}

	reply := e.run(t, ownerID, "!warnings <@u1>")
	lines := strings.Split(reply, "\n")
	if len(lines) != 3 || lines[0] != "⚠️ Warnings for <@u1>:" {
		t.Fatalf("unexpected listing %q", reply)
	}
	if !strings.HasPrefix(lines[1], "1. second") || !strings.HasPrefix(lines[2], "2. first") {
		t.Fatalf("warnings must be listed newest first, got %q", reply)
	}

	warns := 0
	for _, entry := range e.logs(t) {
		if entry.Action == db.ActionWarn {
			warns++
		}
	}
	if warns != 2 {
		t.Fatalf("expected two warn audit entries, got %d", warns)
	}
}

func TestSetLogChannelAndModLog(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.gateway.AddChannel(bot.Channel{ID: "100", GuildID: guildID, Name: "mod-log", Text: true})
	e.gateway.AddChannel(bot.Channel{ID: "200", GuildID: guildID, Name: "Lounge"})

	if reply := e.run(t, ownerID, "!modlog"); reply != "📭 No moderation actions recorded yet." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := e.run(t, ownerID, "!setlogchannel <#200>"); !strings.Contains(reply, "not a text channel") {
		t.Fatalf("voice channel must be rejected, got %q", reply)
	}
	if reply := e.run(t, ownerID, "!setlogchannel <#404>"); !strings.Contains(reply, "does not exist") {
		t.Fatalf("unknown channel must be rejected, got %q", reply)
	}
	if reply := e.run(t, ownerID, "!setlogchannel <#100>"); reply != "✅ Moderation log channel set to #mod-log." {
		t.Fatalf("unexpected reply %q", reply)
	}

	setting, err := e.store.GetLogChannel(context.Background(), guildID)
	if err != nil || setting == nil || setting.ChannelID != "100" {
		t.Fatalf("log channel not stored: %#v %v", setting, err)
	}

	e.run(t, ownerID, "!kick <@u1> bye")
	notified := false
	for _, s := range e.gateway.SentMessages() {
		if s.ChannelID == "100" && s.Message.Embed != nil {
			notified = true
		}
	}
	if !notified {
		t.Fatal("kick must be forwarded to the log channel")
	}

	reply := e.run(t, ownerID, "!modlog")
	lines := strings.Split(reply, "\n")
	if len(lines) != 2 || lines[0] != "📋 Recent moderation actions:" || !strings.HasPrefix(lines[1], "1. KICK u1") {
		t.Fatalf("unexpected modlog %q", reply)
	}
}
