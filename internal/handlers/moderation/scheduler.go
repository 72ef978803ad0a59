package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
	"github.com/iamwavecut/ngmod/internal/infra"
	"github.com/iamwavecut/ngmod/internal/observability"
)

const (
	SweepInterval    = 30 * time.Second
	MutedRoleName    = "muted"
	AutoUnmuteReason = "Auto unmute (time expired)"
)

type sanctionStore interface {
	ReplaceSanction(ctx context.Context, sanction *db.Sanction) error
	DeleteSanctions(ctx context.Context, guildID, userID string) (int64, error)
	DeleteSanction(ctx context.Context, id string) (bool, error)
	GetDueSanctions(ctx context.Context, now time.Time) ([]db.Sanction, error)
	GetActiveSanction(ctx context.Context, guildID, userID string) (*db.Sanction, error)
}

type actionRecorder interface {
	Record(ctx context.Context, action Action) error
}

type MuteRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Duration    string
	Reason      string
}

// SweepReport counts what one sweep pass did with the due sanctions.
type SweepReport struct {
	Due     int
	Unmuted int
	Gone    int
	Skipped int
	Failed  int
}

// Scheduler applies mutes and lifts them once they expire.
type Scheduler struct {
	store    sanctionStore
	gateway  bot.Gateway
	auditor  actionRecorder
	now      func() time.Time
	interval time.Duration

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

func NewScheduler(store sanctionStore, gateway bot.Gateway, auditor actionRecorder) *Scheduler {
	return &Scheduler{
		store:    store,
		gateway:  gateway,
		auditor:  auditor,
		now:      time.Now,
		interval: SweepInterval,
	}
}

func (s *Scheduler) getLogEntry() *log.Entry {
	return log.WithField("object", "Scheduler")
}

// Mute validates the duration before touching anything, assigns the muted
// role and stores a sanction replacing any pending one for the same member.
func (s *Scheduler) Mute(ctx context.Context, req MuteRequest) (*db.Sanction, error) {
	duration, err := ParseDuration(req.Duration)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, errors.ErrInvalidDuration
	}
	if req.GuildID == "" {
		return nil, errors.ErrInvalidContext
	}

	role, err := s.gateway.FindRole(ctx, req.GuildID, MutedRoleName)
	if err != nil {
		return nil, err
	}
	member, err := s.gateway.ResolveMember(ctx, req.GuildID, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.AddRole(ctx, req.GuildID, member.ID, role.ID); err != nil {
		return nil, err
	}

	sanction := &db.Sanction{
		ID:       uuid.New(),
		GuildID:  req.GuildID,
		UserID:   member.ID,
		MutedBy:  req.ModeratorID,
		Reason:   req.Reason,
		UnmuteAt: s.now().Add(duration).UnixMilli(),
	}
	entry := s.getLogEntry().WithFields(log.Fields{
		"method":   "Mute",
		"guild_id": req.GuildID,
		"user_id":  member.ID,
	})
	if previous, err := s.store.GetActiveSanction(ctx, req.GuildID, member.ID); err != nil {
		entry.WithError(err).Warn("cant look up pending mute")
	} else if previous != nil {
		entry.WithFields(log.Fields{
			"previous_id":        previous.ID,
			"previous_unmute_at": previous.UnmuteAt,
		}).Info("replacing pending mute")
	}
	if err := s.store.ReplaceSanction(ctx, sanction); err != nil {
		// Without a row the sweep would never lift the role.
		if rollbackErr := s.gateway.RemoveRole(ctx, req.GuildID, member.ID, role.ID); rollbackErr != nil {
			entry.WithError(rollbackErr).WithField("cause", err.Error()).Error("mute is stuck: role kept without a sanction row")
		} else {
			entry.WithError(err).Error("mute rolled back: sanction not stored")
		}
		return nil, err
	}

	s.audit(ctx, Action{
		GuildID:       req.GuildID,
		ModeratorID:   req.ModeratorID,
		Kind:          db.ActionMute,
		TargetID:      member.ID,
		TargetMention: member.Mention,
		Reason:        req.Reason,
	})
	return sanction, nil
}

// Unmute removes the muted role and every pending sanction of the member.
// Repeating it is not an error.
func (s *Scheduler) Unmute(ctx context.Context, guildID, userID, moderatorID, reason string) error {
	if guildID == "" {
		return errors.ErrInvalidContext
	}
	role, err := s.gateway.FindRole(ctx, guildID, MutedRoleName)
	if err != nil {
		return err
	}
	if err := s.gateway.RemoveRole(ctx, guildID, userID, role.ID); err != nil && !errors.Is(err, errors.ErrMemberNotFound) {
		return err
	}
	if _, err := s.store.DeleteSanctions(ctx, guildID, userID); err != nil {
		return err
	}

	s.audit(ctx, Action{
		GuildID:     guildID,
		ModeratorID: moderatorID,
		Kind:        db.ActionUnmute,
		TargetID:    userID,
		Reason:      reason,
	})
	return nil
}

// Sweep lifts every sanction due at the current time. A failing row never
// stops the pass.
func (s *Scheduler) Sweep(ctx context.Context) (SweepReport, error) {
	ctx, span := observability.Tracer().Start(ctx, "sweep")
	defer span.End()

	report := SweepReport{}
	due, err := s.store.GetDueSanctions(ctx, s.now())
	if err != nil {
		span.RecordError(err)
		return report, err
	}
	report.Due = len(due)

	for i := range due {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		sanction := due[i]
		result := "failed"
		if panicked := infra.Recoverable(func() { result = s.expire(ctx, &sanction) }); panicked {
			result = "failed"
		}
		switch result {
		case "unmuted":
			report.Unmuted++
		case "gone":
			report.Gone++
		case "skipped":
			report.Skipped++
		default:
			report.Failed++
		}
		observability.RecordSweepUnmute(result)
	}

	span.SetAttributes(
		attribute.Int("due", report.Due),
		attribute.Int("unmuted", report.Unmuted),
		attribute.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *Scheduler) expire(ctx context.Context, sanction *db.Sanction) string {
	entry := s.getLogEntry().WithFields(log.Fields{
		"method":      "expire",
		"sanction_id": sanction.ID,
		"guild_id":    sanction.GuildID,
		"user_id":     sanction.UserID,
	})

	member, err := s.gateway.ResolveMember(ctx, sanction.GuildID, sanction.UserID)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		// Guild or member is gone, nothing left to lift.
		if _, err := s.store.DeleteSanction(ctx, sanction.ID); err != nil {
			entry.WithError(err).Warn("cant drop sanction of a departed member")
			return "failed"
		}
		entry.Debug("member no longer resolvable, sanction dropped")
		return "gone"
	case err != nil:
		entry.WithError(err).Warn("cant resolve member, retrying next sweep")
		return "failed"
	}

	if role, err := s.gateway.FindRole(ctx, sanction.GuildID, MutedRoleName); err != nil {
		entry.WithError(err).Debug("muted role is gone")
	} else if err := s.gateway.RemoveRole(ctx, sanction.GuildID, member.ID, role.ID); err != nil {
		entry.WithError(err).Debug("cant remove muted role")
	}

	deleted, err := s.store.DeleteSanction(ctx, sanction.ID)
	if err != nil {
		entry.WithError(err).Warn("cant delete expired sanction")
		return "failed"
	}
	if !deleted {
		entry.Debug("sanction already lifted")
		return "skipped"
	}

	s.audit(ctx, Action{
		GuildID:       sanction.GuildID,
		ModeratorID:   s.gateway.SelfID(),
		Kind:          db.ActionUnmute,
		TargetID:      member.ID,
		TargetMention: member.Mention,
		Reason:        AutoUnmuteReason,
	})
	return "unmuted"
}

func (s *Scheduler) audit(ctx context.Context, action Action) {
	if err := s.auditor.Record(ctx, action); err != nil {
		s.getLogEntry().WithFields(log.Fields{
			"guild_id": action.GuildID,
			"action":   action.Kind,
		}).WithError(err).Error("cant record moderation action")
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()
	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.runCancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runSweep(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runSweep(runCtx)
			}
		}
	}()

	s.started = true
	return nil
}

func (s *Scheduler) runSweep(ctx context.Context) {
	report, err := s.Sweep(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.getLogEntry().WithError(err).Error("sweep failed")
		}
		return
	}
	if report.Due > 0 {
		s.getLogEntry().WithFields(log.Fields{
			"due":     report.Due,
			"unmuted": report.Unmuted,
			"gone":    report.Gone,
			"skipped": report.Skipped,
			"failed":  report.Failed,
		}).Info("sweep finished")
	}
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.runMutex.Lock()
	if !s.started {
		s.runMutex.Unlock()
		return nil
	}
	s.started = false
	cancel := s.runCancel
	s.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
