package db

import "time"

type ActionKind string

const (
	ActionDelete ActionKind = "delete"
	ActionMute   ActionKind = "mute"
	ActionUnmute ActionKind = "unmute"
	ActionKick   ActionKind = "kick"
	ActionBan    ActionKind = "ban"
	ActionWarn   ActionKind = "warn"
)

// WarningsLimit caps how many warnings and log entries a listing returns.
const WarningsLimit = 10

type (
	// Sanction is a pending mute. UnmuteAt is in unix milliseconds.
	Sanction struct {
		ID       string `db:"id"`
		GuildID  string `db:"guild_id"`
		UserID   string `db:"user_id"`
		MutedBy  string `db:"muted_by"`
		Reason   string `db:"reason"`
		UnmuteAt int64  `db:"unmute_at"`
	}

	Warning struct {
		ID        int64  `db:"id"`
		GuildID   string `db:"guild_id"`
		UserID    string `db:"user_id"`
		WarnedBy  string `db:"warned_by"`
		Reason    string `db:"reason"`
		CreatedAt int64  `db:"created_at"`
	}

	AuthorizedUser struct {
		UserID  string `db:"user_id"`
		AddedBy string `db:"added_by"`
		AddedAt int64  `db:"added_at"`
	}

	ModerationLogEntry struct {
		ID          int64      `db:"id"`
		GuildID     string     `db:"guild_id"`
		ModeratorID string     `db:"moderator_id"`
		Action      ActionKind `db:"action"`
		TargetID    string     `db:"target_id"`
		Reason      string     `db:"reason"`
		CreatedAt   int64      `db:"created_at"`
	}

	LogChannelSetting struct {
		GuildID   string `db:"guild_id"`
		ChannelID string `db:"channel_id"`
	}
)

func (s *Sanction) UnmuteTime() time.Time {
	return time.UnixMilli(s.UnmuteAt)
}

// IsDue reports whether the sanction should be lifted at now.
func (s *Sanction) IsDue(now time.Time) bool {
	return s.UnmuteAt <= now.UnixMilli()
}

func (w *Warning) CreatedTime() time.Time {
	return time.UnixMilli(w.CreatedAt)
}

func (e *ModerationLogEntry) CreatedTime() time.Time {
	return time.UnixMilli(e.CreatedAt)
}
