package access

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
)

type allowlist interface {
	IsAuthorized(ctx context.Context, userID string) (bool, error)
	AddAuthorizedUser(ctx context.Context, user *db.AuthorizedUser) error
	RemoveAuthorizedUser(ctx context.Context, userID string) error
}

// Gate decides who may run gated commands: the owner always, everybody else
// only while present in the allowlist.
type Gate struct {
	ownerID string
	store   allowlist
	now     func() time.Time
}

func NewGate(ownerID string, store allowlist) *Gate {
	return &Gate{
		ownerID: strings.TrimSpace(ownerID),
		store:   store,
		now:     time.Now,
	}
}

func (g *Gate) getLogEntry() *log.Entry {
	return log.WithField("object", "AccessGate")
}

func (g *Gate) IsOwner(userID string) bool {
	return g.ownerID != "" && userID == g.ownerID
}

// IsAuthorized never touches the store for the owner.
func (g *Gate) IsAuthorized(ctx context.Context, userID string) (bool, error) {
	if g.IsOwner(userID) {
		return true, nil
	}
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}
	ok, err := g.store.IsAuthorized(ctx, userID)
	if err != nil {
		g.getLogEntry().WithField("user_id", userID).WithError(err).Warn("allowlist lookup failed")
		return false, err
	}
	return ok, nil
}

// Allow adds userID to the allowlist. Only the owner may grant access and
// the owner itself is never stored.
func (g *Gate) Allow(ctx context.Context, actorID, userID string) error {
	if !g.IsOwner(actorID) {
		return errors.ErrUnauthorized
	}
	if strings.TrimSpace(userID) == "" {
		return errors.ErrMissingArgument
	}
	if g.IsOwner(userID) {
		return nil
	}
	return g.store.AddAuthorizedUser(ctx, &db.AuthorizedUser{
		UserID:  userID,
		AddedBy: actorID,
		AddedAt: g.now().UnixMilli(),
	})
}

func (g *Gate) Revoke(ctx context.Context, actorID, userID string) error {
	if !g.IsOwner(actorID) {
		return errors.ErrUnauthorized
	}
	if strings.TrimSpace(userID) == "" {
		return errors.ErrMissingArgument
	}
	if g.IsOwner(userID) {
		return nil
	}
	return g.store.RemoveAuthorizedUser(ctx, userID)
}
