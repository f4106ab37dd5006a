package session

import (
	"context"
	"fmt"

	"creatorjoy/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Keeper refreshes the session on a cron schedule whenever the stored
// credentials are absent or about to expire.
type Keeper struct {
	manager  *Manager
	schedule string
	cron     *cron.Cron
	log      logger.Logger
}

// NewKeeper validates schedule, a six-field cron expression with seconds.
func NewKeeper(m *Manager, schedule string, log logger.Logger) (*Keeper, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid keeper schedule %q: %w", schedule, err)
	}

	return &Keeper{
		manager:  m,
		schedule: schedule,
		// Prevent overlapping runs
		cron: cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:      log.WithField("component", "session_keeper"),
	}, nil
}

// Check refreshes when the current credentials are not valid. It returns
// nil without refreshing when they are.
func (k *Keeper) Check(ctx context.Context) error {
	if k.manager.Valid() {
		k.log.Debug("Session still valid, skipping refresh")
		return nil
	}
	_, err := k.manager.Refresh(ctx, "keeper")
	return err
}

// Run schedules Check and blocks until ctx is cancelled.
func (k *Keeper) Run(ctx context.Context) error {
	_, err := k.cron.AddFunc(k.schedule, func() {
		if err := k.Check(ctx); err != nil {
			k.log.WithError(err).Warn("Scheduled session refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	logger.LogComponentStart(k.log, "session_keeper", map[string]interface{}{"schedule": k.schedule})
	k.cron.Start()

	<-ctx.Done()
	<-k.cron.Stop().Done()
	logger.LogComponentStop(k.log, "session_keeper", ctx.Err().Error())
	return nil
}
