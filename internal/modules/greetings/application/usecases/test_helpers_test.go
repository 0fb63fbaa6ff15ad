package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/gateway/gatewaytest"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/ports/mocks"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/storage/cache"
	"go.uber.org/mock/gomock"
)

const (
	testGuild   = snowflake.ID(1)
	testChannel = snowflake.ID(10)
	testOwner   = snowflake.ID(100)
)

type fixture struct {
	repo      *mocks.MockRepository
	messenger *gatewaytest.Messenger
	guilds    *gatewaytest.Directory
	configs   *ConfigService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	c, err := cache.New[domain.Config](context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		repo:      mocks.NewMockRepository(ctrl),
		messenger: gatewaytest.NewMessenger(),
		guilds:    gatewaytest.NewDirectory(),
	}
	f.guilds.AddGuild(testGuild, "Cirque")
	f.configs = NewConfigService(f.repo, c, f.guilds)
	return f
}

// stored makes the repository return config for the test guild.
func (f *fixture) stored(config domain.Config) {
	f.repo.EXPECT().Get(gomock.Any(), testGuild).Return(config, !config.IsZero(), nil).AnyTimes()
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// blockingWaiter never answers; waits end when the session does.
type blockingWaiter struct{}

func (blockingWaiter) WaitFor(
	ctx context.Context,
	_ gateway.Kind,
	_ time.Duration,
	_ func(gateway.Event) bool,
) (gateway.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
