package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/storage/sqlite"
)

// Compile-time interface check.
var _ ports.Repository = (*SQLiteRepository)(nil)

// SQLiteRepository stores greeting configurations in the greetings table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on the shared store.
func NewSQLiteRepository(store *sqlite.Store) *SQLiteRepository {
	return &SQLiteRepository{db: store.DB()}
}

// Get returns the stored configuration and whether one exists.
func (r *SQLiteRepository) Get(ctx context.Context, guildID snowflake.ID) (domain.Config, bool, error) {
	var (
		config    domain.Config
		channelID int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT public_channel_id, public_message, private_message
FROM greetings
WHERE guild_id = ?`, sqlite.ID(guildID)).Scan(&channelID, &config.PublicMessage, &config.PrivateMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Config{}, false, nil
	}
	if err != nil {
		return domain.Config{}, false, fmt.Errorf("failed to query greetings: %w", err)
	}
	config.PublicChannelID = sqlite.FromID(channelID)
	return config, true, nil
}

// Save upserts the configuration in a single statement.
func (r *SQLiteRepository) Save(ctx context.Context, guildID snowflake.ID, config domain.Config) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO greetings (guild_id, public_channel_id, public_message, private_message, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(guild_id) DO UPDATE SET
    public_channel_id = excluded.public_channel_id,
    public_message = excluded.public_message,
    private_message = excluded.private_message,
    updated_at = excluded.updated_at`,
		sqlite.ID(guildID),
		sqlite.ID(config.PublicChannelID),
		config.PublicMessage,
		config.PrivateMessage,
		sqlite.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert greetings: %w", err)
	}
	return nil
}

// Delete removes the configuration and reports whether one existed.
func (r *SQLiteRepository) Delete(ctx context.Context, guildID snowflake.ID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM greetings WHERE guild_id = ?`, sqlite.ID(guildID))
	if err != nil {
		return false, fmt.Errorf("failed to delete greetings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted greetings: %w", err)
	}
	return rows > 0, nil
}
