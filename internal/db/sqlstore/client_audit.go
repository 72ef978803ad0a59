package sqlstore

import (
	"context"
	"database/sql"

	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
)

func (c *Client) AddWarning(ctx context.Context, warning *db.Warning) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	err := c.db.GetContext(ctx, &warning.ID, c.rebind(`
		INSERT INTO user_warnings (guild_id, user_id, warned_by, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), warning.GuildID, warning.UserID, warning.WarnedBy, warning.Reason, warning.CreatedAt)
	return errors.Persistence("add warning", err)
}

func (c *Client) ListWarnings(ctx context.Context, guildID, userID string, limit int) ([]db.Warning, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if limit <= 0 {
		limit = db.WarningsLimit
	}
	var warnings []db.Warning
	err := c.db.SelectContext(ctx, &warnings, c.rebind(`
		SELECT id, guild_id, user_id, warned_by, reason, created_at
		FROM user_warnings
		WHERE guild_id = ? AND user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), guildID, userID, limit)
	if err != nil {
		return nil, errors.Persistence("list warnings", err)
	}
	return warnings, nil
}

func (c *Client) InsertModerationLog(ctx context.Context, entry *db.ModerationLogEntry) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	err := c.db.GetContext(ctx, &entry.ID, c.rebind(`
		INSERT INTO moderation_logs (guild_id, moderator_id, action, target_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), entry.GuildID, entry.ModeratorID, entry.Action, entry.TargetID, entry.Reason, entry.CreatedAt)
	return errors.Persistence("insert moderation log", err)
}

func (c *Client) ListModerationLogs(ctx context.Context, guildID string, limit int) ([]db.ModerationLogEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if limit <= 0 {
		limit = db.WarningsLimit
	}
	var entries []db.ModerationLogEntry
	err := c.db.SelectContext(ctx, &entries, c.rebind(`
		SELECT id, guild_id, moderator_id, action, target_id, reason, created_at
		FROM moderation_logs
		WHERE guild_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), guildID, limit)
	if err != nil {
		return nil, errors.Persistence("list moderation logs", err)
	}
	return entries, nil
}

func (c *Client) SetLogChannel(ctx context.Context, setting *db.LogChannelSetting) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx, c.rebind(`
		INSERT INTO log_channel_settings (guild_id, channel_id)
		VALUES (?, ?)
		ON CONFLICT (guild_id) DO UPDATE SET channel_id = excluded.channel_id
	`), setting.GuildID, setting.ChannelID)
	return errors.Persistence("set log channel", err)
}

func (c *Client) GetLogChannel(ctx context.Context, guildID string) (*db.LogChannelSetting, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var setting db.LogChannelSetting
	err := c.db.GetContext(ctx, &setting, c.rebind(`
		SELECT guild_id, channel_id FROM log_channel_settings WHERE guild_id = ?
	`), guildID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Persistence("get log channel", err)
	}
	return &setting, nil
}
