package sqlstore

import (
	"context"

	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
)

func (c *Client) IsAuthorized(ctx context.Context, userID string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count, c.rebind(`SELECT COUNT(*) FROM authorized_users WHERE user_id = ?`), userID)
	if err != nil {
		return false, errors.Persistence("is authorized", err)
	}
	return count > 0, nil
}

func (c *Client) AddAuthorizedUser(ctx context.Context, user *db.AuthorizedUser) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx, c.rebind(`
		INSERT INTO authorized_users (user_id, added_by, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`), user.UserID, user.AddedBy, user.AddedAt)
	return errors.Persistence("add authorized user", err)
}

func (c *Client) RemoveAuthorizedUser(ctx context.Context, userID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx, c.rebind(`DELETE FROM authorized_users WHERE user_id = ?`), userID)
	return errors.Persistence("remove authorized user", err)
}

func (c *Client) ListAuthorizedUsers(ctx context.Context) ([]db.AuthorizedUser, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var users []db.AuthorizedUser
	err := c.db.SelectContext(ctx, &users, `
		SELECT user_id, added_by, added_at
		FROM authorized_users
		ORDER BY added_at, user_id
	`)
	if err != nil {
		return nil, errors.Persistence("list authorized users", err)
	}
	return users, nil
}
