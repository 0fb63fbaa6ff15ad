package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/enescakir/emoji"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
)

const (
	urlArtistCredit   = "https://www.redbubble.com/people/Night-Valien/shop"
	urlRevanIcon      = "https://cdn.discordapp.com/attachments/770579028624801802/914390225743151134/revan_icon.png"
	urlRevanThumbnail = "https://cdn.discordapp.com/attachments/770579028624801802/914325770732707890/revan.png"
	urlHKIcon         = "https://cdn.discordapp.com/attachments/770579028624801802/915512461359214602/hk_icon.png"
)

const zwsp = "\u200b"

const (
	textLobbyAuthor   = "Revan says..."
	textLobbyTitle    = "So, you want to be an ab caller?"
	textLobbySubtitle = "*My Revanites understand what you do not.*"
	textLobbyPrompt   = "\n\n**Send any message in this channel if you'd like to join.**"
	textLobbyTime     = "The game will begin in approximately %d seconds."
	textLobbyClosed   = "Prepare yourselves - the game is about to begin."

	textStartTitle    = "The game has begun."
	textStartSubtitle = "*Your interference will be your undoing!*"

	textCallTitle = "Call the %s aberration now. " + zwsp + " "

	textDeathSingular = "Someone has died."
	textDeathPlural   = "%d people have died."
	textDeathSubtitle = "*You could have avoided this fate!*"

	textDisqualifiedTitle    = "Observation: Someone has started typing too early!"
	textDisqualifiedSubtitle = "*Assessment: This meatbag will not provide optimal killing satisfaction.*" +
		"\n*Assurance: I will end their pathetic life, master.*"

	textWonSingular  = "We have a winner!"
	textWonPlural    = "We have %d winners!"
	textWonSubtitle  = "*I can't believe you...*"
	textLostTitle    = "GAME OVER!"
	textLostSubtitle = "*You are all fools!*"

	textNoPlayers = "None."
)

var (
	textLobbyPlayers    = "\n\n" + emoji.BustsInSilhouette.String() + " " + zwsp + " __**PLAYERS**__"
	textStartDirections = "\n\n**Aberrations will become active. Watch closely!** " + zwsp + " " + emoji.Eyes.String() +
		"\n " + zwsp + " " + zwsp + " " + zwsp + " 📵 Don't click out of your Discord window." +
		"\n " + zwsp + " " + zwsp + " " + zwsp + " 🚷 Don't type anything before you're told to."

	labelPlayers = "\n\n" + emoji.BustsInSilhouette.String() + " **PLAYERS:** " + zwsp + " "
	labelDead    = "\n\n" + emoji.SkullAndCrossbones.String() + " **DEAD:** " + zwsp + " "
	labelWinners = "\n\n" + emoji.PartyPopper.String() + " **WINNERS:** " + zwsp + " "
	labelLosers  = "\n\n🪦 **LOSERS:** " + zwsp + " "

	progressActive = emoji.PurpleCircle.String()
	progressBlank  = emoji.BlackCircle.String()

	callOrdinals  = []string{"FIRST", "SECOND", "THIRD", "FOURTH"}
	callSubtitles = []string{
		"*For the galaxy to survive, you must fall!*",
		"*No! I won't be denied!*",
		"*I will never give in!*",
		"*You cannot stop the sacrifice!*",
	}
)

// Announcer posts game announcements as embeds.
type Announcer struct {
	messenger gateway.Messenger
}

// NewAnnouncer creates a new Announcer.
func NewAnnouncer(messenger gateway.Messenger) *Announcer {
	return &Announcer{messenger: messenger}
}

// OpenLobby posts the lobby embed.
func (a *Announcer) OpenLobby(
	ctx context.Context,
	channelID snowflake.ID,
	view ports.LobbyView,
) (gateway.MessageRef, error) {
	return a.messenger.Send(ctx, channelID, gateway.OutgoingMessage{Embed: LobbyEmbed(view)})
}

// UpdateLobby edits the lobby embed in place.
func (a *Announcer) UpdateLobby(ctx context.Context, ref gateway.MessageRef, view ports.LobbyView) error {
	return a.messenger.Edit(ctx, ref, gateway.OutgoingMessage{Embed: LobbyEmbed(view)})
}

// Start posts the directions with the animation attached.
func (a *Announcer) Start(ctx context.Context, channelID snowflake.ID, animation ports.Animation) error {
	embed := gameEmbed(gameEmbedOptions{
		title:       textStartTitle,
		subtitle:    textStartSubtitle,
		description: textStartDirections,
	})
	embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + animation.Name}

	_, err := a.messenger.Send(ctx, channelID, gateway.OutgoingMessage{
		Embed: embed,
		Attachments: []gateway.Attachment{{
			Name:        animation.Name,
			ContentType: animation.ContentType,
			Reader:      bytes.NewReader(animation.Data),
		}},
	})
	return err
}

// Call announces the live target with a progress bar.
func (a *Announcer) Call(ctx context.Context, channelID snowflake.ID, view ports.CallView) error {
	return a.send(ctx, channelID, CallEmbed(view))
}

// Deaths announces one round's eliminations.
func (a *Announcer) Deaths(ctx context.Context, channelID snowflake.ID, killed []snowflake.ID) error {
	return a.send(ctx, channelID, gameEmbed(gameEmbedOptions{
		title:         pluralTitle(len(killed), textDeathSingular, textDeathPlural),
		subtitle:      textDeathSubtitle,
		playersLabel:  labelDead,
		players:       killed,
		listNoPlayers: true,
	}))
}

// Disqualified announces an early-input elimination.
func (a *Announcer) Disqualified(ctx context.Context, channelID snowflake.ID, player snowflake.ID) error {
	return a.send(ctx, channelID, gameEmbed(gameEmbedOptions{
		title:         textDisqualifiedTitle,
		subtitle:      textDisqualifiedSubtitle,
		iconURL:       urlHKIcon,
		playersLabel:  labelDead,
		players:       []snowflake.ID{player},
		listNoPlayers: true,
	}))
}

// Result announces the winners, or the losers when nobody survived.
func (a *Announcer) Result(ctx context.Context, channelID snowflake.ID, result domain.Result) error {
	return a.send(ctx, channelID, ResultEmbed(result))
}

func (a *Announcer) send(ctx context.Context, channelID snowflake.ID, embed *discordgo.MessageEmbed) error {
	_, err := a.messenger.Send(ctx, channelID, gateway.OutgoingMessage{Embed: embed})
	return err
}

// LobbyEmbed renders the lobby with its numbered roster and countdown.
func LobbyEmbed(view ports.LobbyView) *discordgo.MessageEmbed {
	open := view.Remaining > 0

	var b strings.Builder
	b.WriteString(textLobbySubtitle)
	b.WriteString(textLobbyPlayers)
	for i, player := range view.Players {
		fmt.Fprintf(&b, "\n**`%d)`** %s %s", i+1, zwsp, mention(player))
	}

	footer := textLobbyClosed
	if open {
		b.WriteString(textLobbyPrompt)
		footer = fmt.Sprintf(textLobbyTime, int(view.Remaining.Seconds()))
	} else {
		b.WriteString("\n " + zwsp)
	}

	return &discordgo.MessageEmbed{
		Title:       textLobbyTitle,
		Description: b.String(),
		Color:       embeds.ColorDefault,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    textLobbyAuthor,
			URL:     urlArtistCredit,
			IconURL: urlRevanIcon,
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: urlRevanThumbnail},
		Footer:    &discordgo.MessageEmbedFooter{Text: footer},
	}
}

// CallEmbed renders the call for one round.
func CallEmbed(view ports.CallView) *discordgo.MessageEmbed {
	ordinal := strconv.Itoa(view.Round + 1)
	if view.Round < len(callOrdinals) {
		ordinal = callOrdinals[view.Round]
	}
	subtitle := callSubtitles[view.Round%len(callSubtitles)]

	return gameEmbed(gameEmbedOptions{
		title:         fmt.Sprintf(textCallTitle, ordinal),
		progress:      view.Round + 1,
		total:         view.Total,
		subtitle:      subtitle,
		playersLabel:  labelPlayers,
		players:       view.Alive,
		listNoPlayers: true,
	})
}

// ResultEmbed renders the end of the game.
func ResultEmbed(result domain.Result) *discordgo.MessageEmbed {
	if result.Won() {
		return gameEmbed(gameEmbedOptions{
			title:         pluralTitle(len(result.Winners), textWonSingular, textWonPlural),
			subtitle:      textWonSubtitle,
			thumbnail:     true,
			playersLabel:  labelWinners,
			players:       result.Winners,
			listNoPlayers: true,
		})
	}
	return gameEmbed(gameEmbedOptions{
		title:         textLostTitle,
		subtitle:      textLostSubtitle,
		thumbnail:     true,
		playersLabel:  labelLosers,
		players:       result.Losers,
		listNoPlayers: true,
	})
}

type gameEmbedOptions struct {
	title         string
	progress      int
	total         int
	subtitle      string
	description   string
	iconURL       string
	thumbnail     bool
	playersLabel  string
	players       []snowflake.ID
	listNoPlayers bool
}

func gameEmbed(opts gameEmbedOptions) *discordgo.MessageEmbed {
	title := opts.title
	if opts.progress > 0 {
		title += strings.Repeat(progressActive, opts.progress)
		title += strings.Repeat(progressBlank, max(opts.total-opts.progress, 0))
	}
	icon := opts.iconURL
	if icon == "" {
		icon = urlRevanIcon
	}

	description := opts.subtitle + opts.description + opts.playersLabel
	if len(opts.players) > 0 || opts.listNoPlayers {
		description += playerList(opts.players)
	}

	embed := embeds.Basic(description, "")
	embed.Author = &discordgo.MessageEmbedAuthor{Name: title, IconURL: icon}
	if opts.thumbnail {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: urlRevanThumbnail}
	}
	return embed
}

func pluralTitle(n int, singular, pluralFormat string) string {
	if n == 1 {
		return singular
	}
	return fmt.Sprintf(pluralFormat, n)
}

func playerList(players []snowflake.ID) string {
	if len(players) == 0 {
		return textNoPlayers
	}
	mentions := make([]string, len(players))
	for i, p := range players {
		mentions[i] = mention(p)
	}
	return strings.Join(mentions, ", ")
}

func mention(id snowflake.ID) string {
	return "<@" + id.String() + ">"
}
