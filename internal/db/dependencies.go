package db

import (
	"context"
	"time"
)

type Client interface {
	Close() error

	IsAuthorized(ctx context.Context, userID string) (bool, error)
	AddAuthorizedUser(ctx context.Context, user *AuthorizedUser) error
	RemoveAuthorizedUser(ctx context.Context, userID string) error
	ListAuthorizedUsers(ctx context.Context) ([]AuthorizedUser, error)

	// ReplaceSanction drops any pending sanction of the same guild/user and stores the new one atomically.
	ReplaceSanction(ctx context.Context, sanction *Sanction) error
	DeleteSanctions(ctx context.Context, guildID, userID string) (int64, error)
	// DeleteSanction reports whether the row was present.
	DeleteSanction(ctx context.Context, id string) (bool, error)
	GetDueSanctions(ctx context.Context, now time.Time) ([]Sanction, error)
	GetActiveSanction(ctx context.Context, guildID, userID string) (*Sanction, error)

	AddWarning(ctx context.Context, warning *Warning) error
	ListWarnings(ctx context.Context, guildID, userID string, limit int) ([]Warning, error)

	InsertModerationLog(ctx context.Context, entry *ModerationLogEntry) error
	ListModerationLogs(ctx context.Context, guildID string, limit int) ([]ModerationLogEntry, error)

	SetLogChannel(ctx context.Context, setting *LogChannelSetting) error
	GetLogChannel(ctx context.Context, guildID string) (*LogChannelSetting, error)
}
