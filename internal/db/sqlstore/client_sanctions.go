package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
)

func (c *Client) ReplaceSanction(ctx context.Context, sanction *db.Sanction) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Persistence("begin replace sanction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, c.rebind(`DELETE FROM muted_users WHERE guild_id = ? AND user_id = ?`),
		sanction.GuildID, sanction.UserID,
	); err != nil {
		return errors.Persistence("drop previous sanction", err)
	}
	if _, err := tx.ExecContext(ctx, c.rebind(`
		INSERT INTO muted_users (id, guild_id, user_id, muted_by, reason, unmute_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`),
		sanction.ID,
		sanction.GuildID,
		sanction.UserID,
		sanction.MutedBy,
		sanction.Reason,
		sanction.UnmuteAt,
	); err != nil {
		return errors.Persistence("insert sanction", err)
	}
	return errors.Persistence("commit replace sanction", tx.Commit())
}

func (c *Client) DeleteSanctions(ctx context.Context, guildID, userID string) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, c.rebind(`DELETE FROM muted_users WHERE guild_id = ? AND user_id = ?`), guildID, userID)
	if err != nil {
		return 0, errors.Persistence("delete sanctions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Persistence("delete sanctions", err)
	}
	return n, nil
}

func (c *Client) DeleteSanction(ctx context.Context, id string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, c.rebind(`DELETE FROM muted_users WHERE id = ?`), id)
	if err != nil {
		return false, errors.Persistence("delete sanction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Persistence("delete sanction", err)
	}
	return n > 0, nil
}

func (c *Client) GetDueSanctions(ctx context.Context, now time.Time) ([]db.Sanction, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var sanctions []db.Sanction
	err := c.db.SelectContext(ctx, &sanctions, c.rebind(`
		SELECT id, guild_id, user_id, muted_by, reason, unmute_at
		FROM muted_users
		WHERE unmute_at <= ?
		ORDER BY unmute_at
	`), now.UnixMilli())
	if err != nil {
		return nil, errors.Persistence("get due sanctions", err)
	}
	return sanctions, nil
}

func (c *Client) GetActiveSanction(ctx context.Context, guildID, userID string) (*db.Sanction, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var sanction db.Sanction
	err := c.db.GetContext(ctx, &sanction, c.rebind(`
		SELECT id, guild_id, user_id, muted_by, reason, unmute_at
		FROM muted_users
		WHERE guild_id = ? AND user_id = ?
		ORDER BY unmute_at DESC
		LIMIT 1
	`), guildID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Persistence("get active sanction", err)
	}
	return &sanction, nil
}
