package absgame

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/gateway/gatewaytest"
	"github.com/sglre6355/cirquebot/internal/session"
)

func TestLoadConfig_Defaults(t *testing.T) {
	m := New()
	if err := m.LoadConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := m.config
	if cfg.LobbyInterval != 5*time.Second || cfg.LobbyUpdates != 6 || cfg.RoundInterval != 3*time.Second {
		t.Errorf("unexpected timing defaults %+v", cfg)
	}
	if !cfg.TypingDisqualifies {
		t.Error("expected typing to disqualify by default")
	}
	if len(cfg.ChannelIDs) != 0 {
		t.Errorf("expected no channel restriction, got %v", cfg.ChannelIDs)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ABS_GAME_CHANNEL_IDS", "11,12")
	t.Setenv("ABS_GAME_TYPING_DISQUALIFIES", "false")
	t.Setenv("ABS_GAME_ROUND_INTERVAL", "2s")

	m := New()
	if err := m.LoadConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(m.config.ChannelIDs) != 2 || m.config.ChannelIDs[1] != 12 {
		t.Errorf("expected channels [11 12], got %v", m.config.ChannelIDs)
	}
	if m.config.TypingDisqualifies {
		t.Error("expected message-only enforcement")
	}
	if m.config.RoundInterval != 2*time.Second {
		t.Errorf("expected 2s rounds, got %s", m.config.RoundInterval)
	}
}

func TestLoadConfig_RejectsInvalidTiming(t *testing.T) {
	t.Setenv("ABS_GAME_LOBBY_UPDATES", "0")

	if err := New().LoadConfig(); err == nil {
		t.Error("expected error for zero lobby updates")
	}
}

func TestInit(t *testing.T) {
	deps := bot.ModuleDependencies{
		Messenger: gatewaytest.NewMessenger(),
		Sessions:  session.NewRegistry(),
	}

	t.Run("requires the gateway", func(t *testing.T) {
		if err := New().Init(bot.ModuleDependencies{}); err == nil {
			t.Error("expected error without a messenger")
		}
	})

	t.Run("registers the abs command", func(t *testing.T) {
		m := New()
		if err := m.Init(deps); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer m.Shutdown()

		if _, ok := m.CommandHandlers()["abs"]; !ok {
			t.Error("expected an abs handler")
		}
		if len(m.Commands()) != 1 {
			t.Errorf("expected 1 command, got %d", len(m.Commands()))
		}
	})

	t.Run("loads a custom target table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "targets.yaml")
		table := `targets:
  - name: one
    label: "1"
    position: [10, 10]
    pattern: '^(1|one)$'
`
		if err := os.WriteFile(path, []byte(table), 0o600); err != nil {
			t.Fatalf("write table: %v", err)
		}
		t.Setenv("ABS_GAME_TARGETS", path)
		t.Setenv("ABS_GAME_FLASHES", "1")

		m := New()
		if err := m.LoadConfig(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := m.Init(deps); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer m.Shutdown()
	})

	t.Run("rejects more flashes than targets", func(t *testing.T) {
		t.Setenv("ABS_GAME_FLASHES", "11")

		m := New()
		if err := m.LoadConfig(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := m.Init(deps); err == nil {
			t.Error("expected error for too many flashes")
		}
	})
}
