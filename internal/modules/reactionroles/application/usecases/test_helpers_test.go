package usecases

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/gateway/gatewaytest"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
	"github.com/sglre6355/cirquebot/internal/storage/cache"
)

const (
	testGuild   = snowflake.ID(1)
	testChannel = snowflake.ID(10)
	testOwner   = snowflake.ID(100)
	testMember  = snowflake.ID(200)
	testSelf    = snowflake.ID(900)

	roleRed  = snowflake.ID(501)
	roleBlue = snowflake.ID(502)
)

var (
	testLink  = domain.MessageLink{GuildID: testGuild, ChannelID: 20, MessageID: 30}
	otherLink = domain.MessageLink{GuildID: testGuild, ChannelID: 20, MessageID: 31}
)

func ref(link domain.MessageLink) gateway.MessageRef {
	return gateway.MessageRef{ChannelID: link.ChannelID, ID: link.MessageID}
}

// memoryRepository is an in-memory ports.Repository.
type memoryRepository struct {
	mu      sync.Mutex
	configs []domain.Config
	loads   int
}

func (r *memoryRepository) ListByGuild(_ context.Context, guildID snowflake.ID) ([]domain.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	var out []domain.Config
	for _, c := range r.configs {
		if c.Link.GuildID == guildID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *memoryRepository) Save(_ context.Context, config domain.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.configs, func(c domain.Config) bool { return c.Link.MessageID == config.Link.MessageID })
	if i < 0 {
		r.configs = append(r.configs, config.Clone())
	} else {
		r.configs[i] = config.Clone()
	}
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, guildID, messageID snowflake.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.configs)
	r.configs = slices.DeleteFunc(r.configs, func(c domain.Config) bool {
		return c.Link.GuildID == guildID && c.Link.MessageID == messageID
	})
	return len(r.configs) != before, nil
}

func (r *memoryRepository) get(messageID snowflake.ID) (domain.Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.configs, func(c domain.Config) bool { return c.Link.MessageID == messageID })
	if i < 0 {
		return domain.Config{}, false
	}
	return r.configs[i].Clone(), true
}

type fixture struct {
	repo      *memoryRepository
	messenger *gatewaytest.Messenger
	guilds    *gatewaytest.Directory
	configs   *ConfigService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c, err := cache.New[[]domain.Config](context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		repo:      &memoryRepository{},
		messenger: gatewaytest.NewMessenger(),
		guilds:    gatewaytest.NewDirectory(),
	}
	f.guilds.AddGuild(testGuild, "Cirque",
		gateway.Role{ID: roleRed, Name: "Red"},
		gateway.Role{ID: roleBlue, Name: "Blue"},
	)
	f.guilds.AddMessage(ref(testLink))
	f.guilds.AddMessage(ref(otherLink))
	f.configs = NewConfigService(f.repo, c, f.messenger, f.guilds, testSelf)
	return f
}

// stored puts config into the repository behind the cache.
func (f *fixture) stored(config domain.Config) {
	_ = f.repo.Save(context.Background(), config)
}

// colors is a reactive config mapping red and blue circles to roles.
func colors(mutate ...func(c *domain.Config)) domain.Config {
	c := domain.NewConfig(testLink, testChannel)
	c.Associations = []domain.Association{
		{Emoji: "🔴", RoleID: roleRed},
		{Emoji: "🔵", RoleID: roleBlue},
	}
	for _, m := range mutate {
		m(&c)
	}
	return c
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
