package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// stubModule is a test double for Module
type stubModule struct {
	name          string
	commands      []*discordgo.ApplicationCommand
	handlers      map[string]InteractionHandler
	subscriptions []Subscription
	initErr       error
	shutErr       error
}

func (m *stubModule) Name() string                                   { return m.name }
func (m *stubModule) Commands() []*discordgo.ApplicationCommand      { return m.commands }
func (m *stubModule) CommandHandlers() map[string]InteractionHandler { return m.handlers }
func (m *stubModule) Subscriptions() []Subscription                  { return m.subscriptions }
func (m *stubModule) Init(deps ModuleDependencies) error             { return m.initErr }
func (m *stubModule) Shutdown() error                                { return m.shutErr }

// configurableStub records LoadConfig calls.
type configurableStub struct {
	stubModule
	loadErr error
	loaded  int
}

func (m *configurableStub) LoadConfig() error {
	m.loaded++
	return m.loadErr
}

func TestRegistry_Register(t *testing.T) {
	// Use a fresh registry for testing
	reg := NewRegistry()

	mod := &stubModule{name: "test-module"}
	reg.Register(mod)

	modules := reg.Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}

	if modules[0].Name() != "test-module" {
		t.Errorf("expected module name %q, got %q", "test-module", modules[0].Name())
	}
}

func TestRegistry_StaticListKeepsOrder(t *testing.T) {
	reg := NewRegistry(&stubModule{name: "module-1"}, &stubModule{name: "module-2"})

	modules := reg.Modules()
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].Name() != "module-1" || modules[1].Name() != "module-2" {
		t.Errorf("expected modules in list order, got %s, %s", modules[0].Name(), modules[1].Name())
	}
}

func TestRegistry_ModulesReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()

	mod1 := &stubModule{name: "module-1"}
	reg.Register(mod1)

	modules := reg.Modules()

	// Register another module after getting snapshot
	mod2 := &stubModule{name: "module-2"}
	reg.Register(mod2)

	// Original snapshot should not be affected
	if len(modules) != 1 {
		t.Errorf("expected snapshot to have 1 module, got %d", len(modules))
	}
}

func TestRegistry_LoadConfigs(t *testing.T) {
	t.Run("calls LoadConfig on configurable modules", func(t *testing.T) {
		configurable := &configurableStub{stubModule: stubModule{name: "configurable"}}
		reg := NewRegistry(&stubModule{name: "plain"}, configurable)

		if err := reg.LoadConfigs(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if configurable.loaded != 1 {
			t.Errorf("expected LoadConfig to be called once, got %d", configurable.loaded)
		}
	})

	t.Run("returns the first config error", func(t *testing.T) {
		expectedErr := errors.New("missing variable")
		reg := NewRegistry(&configurableStub{stubModule: stubModule{name: "broken"}, loadErr: expectedErr})

		if err := reg.LoadConfigs(); !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})
}
