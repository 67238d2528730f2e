package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

const defaultSessionIdleAfter = 4 * time.Hour

type IdleSessionJobParams struct {
	Logger    *logger.Logger
	Sessions  sessionCloser
	IdleAfter time.Duration
}

type sessionCloser interface {
	CloseIdle(ctx context.Context, cutoff time.Time) (int, error)
}

func NewIdleSessionJob(params IdleSessionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("sessions service required")
	}
	idleAfter := params.IdleAfter
	if idleAfter <= 0 {
		idleAfter = defaultSessionIdleAfter
	}
	return &idleSessionJob{
		logg:      params.Logger,
		sessions:  params.Sessions,
		idleAfter: idleAfter,
		now:       time.Now,
	}, nil
}

type idleSessionJob struct {
	logg      *logger.Logger
	sessions  sessionCloser
	idleAfter time.Duration
	now       func() time.Time
}

func (j *idleSessionJob) Name() string { return "idle-session-sweep" }

func (j *idleSessionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.idleAfter)
	closed, err := j.sessions.CloseIdle(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("idle session sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"idle_after":      j.idleAfter.String(),
		"sessions_closed": closed,
	})
	j.logg.Info(logCtx, "idle session sweep complete")
	return nil
}
