package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
	"github.com/sglre6355/cirquebot/internal/storage/sqlite"
)

// Compile-time interface check.
var _ ports.Repository = (*SQLiteRepository)(nil)

// SQLiteRepository stores reaction-role configurations in the reaction_roles
// table. Associations are kept in order as a JSON array.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on the shared store.
func NewSQLiteRepository(store *sqlite.Store) *SQLiteRepository {
	return &SQLiteRepository{db: store.DB()}
}

// ListByGuild returns every configuration of the guild ordered by message.
func (r *SQLiteRepository) ListByGuild(ctx context.Context, guildID snowflake.ID) ([]domain.Config, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT message_id, channel_id, is_reactive, allow_multiselect, allow_cancellation,
       confirmation_type, confirmation_channel_id, associations
FROM reaction_roles
WHERE guild_id = ?
ORDER BY message_id`, sqlite.ID(guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to query reaction roles: %w", err)
	}
	defer rows.Close()

	var configs []domain.Config
	for rows.Next() {
		var (
			config               domain.Config
			messageID, channelID int64
			confirmChannelID     int64
			associations         string
		)
		if err := rows.Scan(
			&messageID,
			&channelID,
			&config.IsReactive,
			&config.AllowMultiselect,
			&config.AllowCancellation,
			&config.ConfirmationType,
			&confirmChannelID,
			&associations,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reaction roles: %w", err)
		}
		if err := json.Unmarshal([]byte(associations), &config.Associations); err != nil {
			return nil, fmt.Errorf("failed to decode associations of message %d: %w", messageID, err)
		}
		config.Link = domain.MessageLink{
			GuildID:   guildID,
			ChannelID: sqlite.FromID(channelID),
			MessageID: sqlite.FromID(messageID),
		}
		config.ConfirmationChannelID = sqlite.FromID(confirmChannelID)
		configs = append(configs, config)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reaction roles: %w", err)
	}
	return configs, nil
}

// Save upserts the configuration keyed by its message.
func (r *SQLiteRepository) Save(ctx context.Context, config domain.Config) error {
	associations := config.Associations
	if associations == nil {
		associations = []domain.Association{}
	}
	encoded, err := json.Marshal(associations)
	if err != nil {
		return fmt.Errorf("failed to encode associations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO reaction_roles (
    message_id, channel_id, guild_id, is_reactive, allow_multiselect, allow_cancellation,
    confirmation_type, confirmation_channel_id, associations, updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(message_id) DO UPDATE SET
    channel_id = excluded.channel_id,
    guild_id = excluded.guild_id,
    is_reactive = excluded.is_reactive,
    allow_multiselect = excluded.allow_multiselect,
    allow_cancellation = excluded.allow_cancellation,
    confirmation_type = excluded.confirmation_type,
    confirmation_channel_id = excluded.confirmation_channel_id,
    associations = excluded.associations,
    updated_at = excluded.updated_at`,
		sqlite.ID(config.Link.MessageID),
		sqlite.ID(config.Link.ChannelID),
		sqlite.ID(config.Link.GuildID),
		config.IsReactive,
		config.AllowMultiselect,
		config.AllowCancellation,
		int(config.ConfirmationType),
		sqlite.ID(config.ConfirmationChannelID),
		string(encoded),
		sqlite.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reaction roles: %w", err)
	}
	return nil
}

// Delete removes the configuration of a message and reports whether one existed.
func (r *SQLiteRepository) Delete(ctx context.Context, guildID, messageID snowflake.ID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reaction_roles WHERE guild_id = ? AND message_id = ?`,
		sqlite.ID(guildID), sqlite.ID(messageID),
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete reaction roles: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted reaction roles: %w", err)
	}
	return rows > 0, nil
}
