package domain

import (
	"errors"
	"testing"
)

func TestParseMessageLink(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    MessageLink
		wantErr bool
	}{
		{
			name: "canonical link",
			text: "https://discord.com/channels/1/2/3",
			want: MessageLink{GuildID: 1, ChannelID: 2, MessageID: 3},
		},
		{
			name: "legacy host with embed suppression",
			text: "<https://discordapp.com/channels/10/20/30>",
			want: MessageLink{GuildID: 10, ChannelID: 20, MessageID: 30},
		},
		{
			name: "canary client",
			text: " https://canary.discord.com/channels/4/5/6/ ",
			want: MessageLink{GuildID: 4, ChannelID: 5, MessageID: 6},
		},
		{name: "channel link", text: "https://discord.com/channels/1/2", wantErr: true},
		{name: "other host", text: "https://example.com/channels/1/2/3", wantErr: true},
		{name: "plain text", text: "hello", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessageLink(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLink) {
					t.Errorf("expected ErrInvalidLink, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMessageLinkFormatting(t *testing.T) {
	link := MessageLink{GuildID: 1, ChannelID: 2, MessageID: 3}
	if got := link.URL(); got != "https://discord.com/channels/1/2/3" {
		t.Errorf("unexpected url %q", got)
	}
	if got := link.Markdown(); got != "[3](https://discord.com/channels/1/2/3)" {
		t.Errorf("unexpected markdown %q", got)
	}
}
