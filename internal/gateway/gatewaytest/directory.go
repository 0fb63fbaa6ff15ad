package gatewaytest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
)

// Directory is an in-memory guild directory.
type Directory struct {
	mu       sync.Mutex
	guilds   map[snowflake.ID]string
	roles    map[snowflake.ID][]gateway.Role
	members  map[snowflake.ID]map[snowflake.ID][]snowflake.ID
	blocked  map[snowflake.ID]bool
	messages map[gateway.MessageRef]bool
	reacted  map[gateway.MessageRef][]string
	access   map[snowflake.ID]gateway.ReactionAccess
}

var _ gateway.GuildDirectory = (*Directory)(nil)

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		guilds:   make(map[snowflake.ID]string),
		roles:    make(map[snowflake.ID][]gateway.Role),
		members:  make(map[snowflake.ID]map[snowflake.ID][]snowflake.ID),
		blocked:  make(map[snowflake.ID]bool),
		messages: make(map[gateway.MessageRef]bool),
		reacted:  make(map[gateway.MessageRef][]string),
		access:   make(map[snowflake.ID]gateway.ReactionAccess),
	}
}

// AddGuild registers a guild and its roles.
func (d *Directory) AddGuild(guildID snowflake.ID, name string, roles ...gateway.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guilds[guildID] = name
	d.roles[guildID] = append(d.roles[guildID], roles...)
}

// BlockChannel makes CanSend report false for the channel.
func (d *Directory) BlockChannel(channelID snowflake.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocked[channelID] = true
}

// AddMessage makes MessageExists report true for the message.
func (d *Directory) AddMessage(ref gateway.MessageRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages[ref] = true
}

// SetReactions makes MessageReactions report the given emoji for the message.
func (d *Directory) SetReactions(ref gateway.MessageRef, emoji ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reacted[ref] = emoji
}

// RestrictReactions overrides the reaction permissions for a channel.
// Unrestricted channels allow everything.
func (d *Directory) RestrictReactions(channelID snowflake.ID, access gateway.ReactionAccess) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.access[channelID] = access
}

func (d *Directory) GuildName(_ context.Context, guildID snowflake.ID) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.guilds[guildID]
	if !ok {
		return "", gateway.ErrChannelNotFound
	}
	return name, nil
}

func (d *Directory) FindRole(_ context.Context, guildID snowflake.ID, query string) (gateway.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	query = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(query), "<@&"), ">")
	for _, r := range d.roles[guildID] {
		if r.ID.String() == query || strings.EqualFold(r.Name, query) {
			return r, nil
		}
	}
	return gateway.Role{}, gateway.ErrRoleNotFound
}

func (d *Directory) Role(_ context.Context, guildID, roleID snowflake.ID) (gateway.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.roles[guildID] {
		if r.ID == roleID {
			return r, nil
		}
	}
	return gateway.Role{}, gateway.ErrRoleNotFound
}

func (d *Directory) MemberRoles(_ context.Context, guildID, userID snowflake.ID) ([]snowflake.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.members[guildID][userID]), nil
}

func (d *Directory) AddRole(_ context.Context, guildID, userID, roleID snowflake.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.members[guildID] == nil {
		d.members[guildID] = make(map[snowflake.ID][]snowflake.ID)
	}
	if !slices.Contains(d.members[guildID][userID], roleID) {
		d.members[guildID][userID] = append(d.members[guildID][userID], roleID)
	}
	return nil
}

func (d *Directory) RemoveRole(_ context.Context, guildID, userID, roleID snowflake.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	roles, ok := d.members[guildID][userID]
	if !ok {
		return nil
	}
	d.members[guildID][userID] = slices.DeleteFunc(roles, func(id snowflake.ID) bool { return id == roleID })
	return nil
}

func (d *Directory) CanSend(_ context.Context, channelID snowflake.ID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.blocked[channelID], nil
}

func (d *Directory) MessageExists(_ context.Context, ref gateway.MessageRef) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.messages[ref], nil
}

func (d *Directory) MessageReactions(_ context.Context, ref gateway.MessageRef) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.reacted[ref]), nil
}

func (d *Directory) ReactionAccess(_ context.Context, channelID snowflake.ID) (gateway.ReactionAccess, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if access, ok := d.access[channelID]; ok {
		return access, nil
	}
	return gateway.ReactionAccess{CanAdd: true, CanManage: true}, nil
}
