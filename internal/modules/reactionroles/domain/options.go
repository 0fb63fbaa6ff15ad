package domain

import (
	"strings"

	"github.com/enescakir/emoji"
)

// Option emoji show the current value of each toggle; reacting with one
// advances that toggle.
var (
	EmojiReactive       = emoji.PartyPopper.String()
	EmojiNotReactive    = emoji.Detective.String()
	EmojiMultiselect    = emoji.PersonJuggling.String()
	EmojiSingleSelect   = emoji.IndexPointingUp.String()
	EmojiCancellable    = emoji.BabyAngel.String()
	EmojiNotCancellable = emoji.PoliceOfficer.String()
	EmojiConfirmNone    = emoji.BellWithSlash.String()
	EmojiConfirmPrivate = emoji.IncomingEnvelope.String()
	EmojiConfirmPublic  = emoji.Loudspeaker.String()
)

func pick(value bool, yes, no string) string {
	if value {
		return yes
	}
	return no
}

// ReactiveIcon returns the emoji for the reactive toggle.
func (c Config) ReactiveIcon() string {
	return pick(c.IsReactive, EmojiReactive, EmojiNotReactive)
}

// MultiselectIcon returns the emoji for the multiselect toggle.
func (c Config) MultiselectIcon() string {
	return pick(c.AllowMultiselect, EmojiMultiselect, EmojiSingleSelect)
}

// CancellationIcon returns the emoji for the cancellation toggle.
func (c Config) CancellationIcon() string {
	return pick(c.AllowCancellation, EmojiCancellable, EmojiNotCancellable)
}

// ConfirmationIcon returns the emoji for the confirmation type.
func (c Config) ConfirmationIcon() string {
	switch c.ConfirmationType {
	case ConfirmationPrivate:
		return EmojiConfirmPrivate
	case ConfirmationPublic:
		return EmojiConfirmPublic
	default:
		return EmojiConfirmNone
	}
}

// OptionIcons returns the four option emoji separated by spaces.
func (c Config) OptionIcons() string {
	return strings.Join([]string{
		c.ReactiveIcon(), c.MultiselectIcon(), c.CancellationIcon(), c.ConfirmationIcon(),
	}, " ")
}
