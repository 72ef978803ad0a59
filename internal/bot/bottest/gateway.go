// Package bottest provides an in-memory bot.Gateway for tests.
package bottest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/errors"
)

type Sent struct {
	ChannelID string
	Message   bot.OutgoingMessage
}

type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// Gateway keeps guilds, roles, members and channels in maps and records every
// mutating call. Set the *Err fields to make the matching call fail.
type Gateway struct {
	mu sync.Mutex

	Self     string
	Guilds   map[string]bool
	Roles    map[string][]bot.Role // guild id -> roles
	Members  map[string]map[string]*bot.Member
	Channels map[string]*bot.Channel
	Inbox    chan *bot.Message

	Deleted   []string
	Sent      []Sent
	Reactions []Reaction
	Kicked    []string
	Banned    []string

	SendErr       error
	RemoveRoleErr error
	AddRoleErr    error
	DeleteErr     error
	KickErr       error
	BanErr        error
}

var _ bot.Gateway = (*Gateway)(nil)

func NewGateway(selfID string) *Gateway {
	return &Gateway{
		Self:     selfID,
		Guilds:   map[string]bool{},
		Roles:    map[string][]bot.Role{},
		Members:  map[string]map[string]*bot.Member{},
		Channels: map[string]*bot.Channel{},
		Inbox:    make(chan *bot.Message, 16),
	}
}

func (g *Gateway) AddGuild(guildID string, roles ...bot.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Guilds[guildID] = true
	g.Roles[guildID] = append(g.Roles[guildID], roles...)
	if g.Members[guildID] == nil {
		g.Members[guildID] = map[string]*bot.Member{}
	}
}

func (g *Gateway) AddMember(guildID, userID string, roleIDs ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Members[guildID] == nil {
		g.Members[guildID] = map[string]*bot.Member{}
	}
	g.Members[guildID][userID] = &bot.Member{
		ID:          userID,
		GuildID:     guildID,
		DisplayName: "user" + userID,
		Mention:     "<@" + userID + ">",
		RoleIDs:     roleIDs,
	}
}

func (g *Gateway) RemoveMember(guildID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.Members[guildID], userID)
}

func (g *Gateway) RemoveGuild(guildID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.Guilds, guildID)
}

func (g *Gateway) AddChannel(ch bot.Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Channels[ch.ID] = &ch
}

// MemberRoles returns a copy of the member's role ids, nil when unknown.
func (g *Gateway) MemberRoles(guildID, userID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.Members[guildID][userID]
	if !ok {
		return nil
	}
	return append([]string(nil), m.RoleIDs...)
}

func (g *Gateway) SentMessages() []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Sent(nil), g.Sent...)
}

func (g *Gateway) Start(context.Context) error { return nil }
func (g *Gateway) Stop(context.Context) error  { return nil }
func (g *Gateway) SelfID() string              { return g.Self }

func (g *Gateway) Updates(context.Context) (<-chan *bot.Message, error) {
	return g.Inbox, nil
}

func (g *Gateway) ResolveMember(ctx context.Context, guildID, userID string) (*bot.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Transport("resolve member", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.Guilds[guildID] {
		return nil, errors.ErrGuildNotFound
	}
	m, ok := g.Members[guildID][userID]
	if !ok {
		return nil, errors.ErrMemberNotFound
	}
	cp := *m
	cp.RoleIDs = append([]string(nil), m.RoleIDs...)
	return &cp, nil
}

func (g *Gateway) FindRole(_ context.Context, guildID, name string) (*bot.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.Guilds[guildID] {
		return nil, errors.ErrGuildNotFound
	}
	for _, r := range g.Roles[guildID] {
		if strings.EqualFold(r.Name, name) {
			role := r
			return &role, nil
		}
	}
	return nil, errors.ErrRoleNotFound
}

func (g *Gateway) AddRole(_ context.Context, guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AddRoleErr != nil {
		return g.AddRoleErr
	}
	m, ok := g.Members[guildID][userID]
	if !ok {
		return errors.ErrMemberNotFound
	}
	if !m.HasRole(roleID) {
		m.RoleIDs = append(m.RoleIDs, roleID)
	}
	return nil
}

func (g *Gateway) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.RemoveRoleErr != nil {
		return g.RemoveRoleErr
	}
	m, ok := g.Members[guildID][userID]
	if !ok {
		return errors.ErrMemberNotFound
	}
	kept := m.RoleIDs[:0]
	for _, id := range m.RoleIDs {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	m.RoleIDs = kept
	return nil
}

func (g *Gateway) DeleteMessage(_ context.Context, channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeleteErr != nil {
		return g.DeleteErr
	}
	g.Deleted = append(g.Deleted, channelID+"/"+messageID)
	return nil
}

func (g *Gateway) Send(_ context.Context, channelID string, msg bot.OutgoingMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SendErr != nil {
		return g.SendErr
	}
	g.Sent = append(g.Sent, Sent{ChannelID: channelID, Message: msg})
	return nil
}

func (g *Gateway) React(_ context.Context, channelID, messageID, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Reactions = append(g.Reactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (g *Gateway) Channel(_ context.Context, channelID string) (*bot.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.Channels[channelID]
	if !ok {
		return nil, errors.ErrChannelNotFound
	}
	cp := *ch
	return &cp, nil
}

func (g *Gateway) Kick(_ context.Context, guildID, userID, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.KickErr != nil {
		return g.KickErr
	}
	if _, ok := g.Members[guildID][userID]; !ok {
		return errors.ErrMemberNotFound
	}
	delete(g.Members[guildID], userID)
	g.Kicked = append(g.Kicked, fmt.Sprintf("%s/%s", guildID, userID))
	return nil
}

func (g *Gateway) Ban(_ context.Context, guildID, userID, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.BanErr != nil {
		return g.BanErr
	}
	delete(g.Members[guildID], userID)
	g.Banned = append(g.Banned, fmt.Sprintf("%s/%s", guildID, userID))
	return nil
}
