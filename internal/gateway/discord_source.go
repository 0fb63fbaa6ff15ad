package gateway

import (
	"log/slog"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// Publisher accepts gateway events.
type Publisher interface {
	Publish(event Event)
}

var channelMentionPattern = regexp.MustCompile(`<#(\d+)>`)

// DiscordSource translates discordgo events into gateway events.
type DiscordSource struct {
	publisher Publisher
	selfID    snowflake.ID
}

// NewDiscordSource creates a DiscordSource that ignores events caused by selfID.
func NewDiscordSource(publisher Publisher, selfID snowflake.ID) *DiscordSource {
	return &DiscordSource{publisher: publisher, selfID: selfID}
}

// Handlers returns discordgo handler functions to register with AddHandler.
func (s *DiscordSource) Handlers() []any {
	return []any{
		s.onMessageCreate,
		s.onReactionAdd,
		s.onReactionRemove,
		s.onTypingStart,
		s.onMemberAdd,
	}
}

func (s *DiscordSource) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	event, ok := MessageFromDiscord(m.Message)
	if !ok || event.AuthorID == s.selfID {
		return
	}
	s.publisher.Publish(event)
}

func (s *DiscordSource) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil {
		return
	}
	bot := r.Member != nil && r.Member.User != nil && r.Member.User.Bot
	s.publishReaction(r.MessageReaction, true, bot)
}

func (s *DiscordSource) onReactionRemove(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.MessageReaction == nil {
		return
	}
	s.publishReaction(r.MessageReaction, false, false)
}

func (s *DiscordSource) publishReaction(r *discordgo.MessageReaction, added, bot bool) {
	event, ok := ReactionFromDiscord(r, added)
	if !ok || event.UserID == s.selfID {
		return
	}
	event.UserBot = bot
	s.publisher.Publish(event)
}

func (s *DiscordSource) onTypingStart(_ *discordgo.Session, t *discordgo.TypingStart) {
	userID, err1 := snowflake.Parse(t.UserID)
	channelID, err2 := snowflake.Parse(t.ChannelID)
	if err1 != nil || err2 != nil || userID == s.selfID {
		return
	}
	guildID, _ := parseOptionalID(t.GuildID)
	s.publisher.Publish(TypingEvent{ChannelID: channelID, GuildID: guildID, UserID: userID})
}

func (s *DiscordSource) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil {
		return
	}
	userID, err1 := snowflake.Parse(m.User.ID)
	guildID, err2 := snowflake.Parse(m.GuildID)
	if err1 != nil || err2 != nil {
		slog.Warn("failed to parse member join ids", "user", m.User.ID, "guild", m.GuildID)
		return
	}
	s.publisher.Publish(MemberJoinEvent{GuildID: guildID, UserID: userID, Bot: m.User.Bot})
}

// MessageFromDiscord converts a discordgo message into a MessageEvent.
func MessageFromDiscord(m *discordgo.Message) (MessageEvent, bool) {
	id, err := snowflake.Parse(m.ID)
	if err != nil {
		return MessageEvent{}, false
	}
	channelID, err := snowflake.Parse(m.ChannelID)
	if err != nil {
		return MessageEvent{}, false
	}
	authorID, err := snowflake.Parse(m.Author.ID)
	if err != nil {
		return MessageEvent{}, false
	}
	guildID, _ := parseOptionalID(m.GuildID)

	event := MessageEvent{
		ID:              id,
		ChannelID:       channelID,
		GuildID:         guildID,
		AuthorID:        authorID,
		AuthorBot:       m.Author.Bot,
		Content:         m.Content,
		ChannelMentions: ParseChannelMentions(m.Content),
	}
	for _, raw := range m.MentionRoles {
		if roleID, err := snowflake.Parse(raw); err == nil {
			event.RoleMentions = append(event.RoleMentions, roleID)
		}
	}
	return event, true
}

// ReactionFromDiscord converts a discordgo reaction into a ReactionEvent.
func ReactionFromDiscord(r *discordgo.MessageReaction, added bool) (ReactionEvent, bool) {
	messageID, err := snowflake.Parse(r.MessageID)
	if err != nil {
		return ReactionEvent{}, false
	}
	channelID, err := snowflake.Parse(r.ChannelID)
	if err != nil {
		return ReactionEvent{}, false
	}
	userID, err := snowflake.Parse(r.UserID)
	if err != nil {
		return ReactionEvent{}, false
	}
	guildID, _ := parseOptionalID(r.GuildID)

	return ReactionEvent{
		MessageID: messageID,
		ChannelID: channelID,
		GuildID:   guildID,
		UserID:    userID,
		Emoji:     r.Emoji.APIName(),
		Custom:    r.Emoji.ID != "",
		Added:     added,
	}, true
}

// ParseChannelMentions returns the distinct channel ids mentioned in content, in order.
func ParseChannelMentions(content string) []snowflake.ID {
	var ids []snowflake.ID
	seen := make(map[snowflake.ID]bool)
	for _, match := range channelMentionPattern.FindAllStringSubmatch(content, -1) {
		id, err := snowflake.Parse(match[1])
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func parseOptionalID(raw string) (snowflake.ID, error) {
	if raw == "" {
		return 0, nil
	}
	return snowflake.Parse(raw)
}
