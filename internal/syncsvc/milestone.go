package syncsvc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/motivation"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
)

// CheckAndRecordMilestone detects a payoff milestone crossed between two
// principal readings and records the achievement, not yet celebrated. The
// threshold is reported to the caller immediately so the celebration can be
// shown; the caller then flips the flag with MarkMilestoneCelebrated. A
// failure to mirror the achievement remotely is logged and never blocks the
// celebration.
func (c *Coordinator) CheckAndRecordMilestone(ctx context.Context, previousPrincipal, currentPrincipal float64) (int, error) {
	threshold := motivation.CheckNewMilestone(previousPrincipal, currentPrincipal, c.cfg.InitialDebt)
	if threshold == 0 {
		return 0, nil
	}

	record := storage.MilestoneRecord{
		Threshold:              threshold,
		AchievedAt:             time.Now().UTC(),
		PrincipalAtAchievement: currentPrincipal,
	}
	if err := c.SaveMilestone(ctx, record); err != nil {
		var remoteErr *remote.Error
		if !errors.As(err, &remoteErr) {
			return 0, err
		}
		c.log.Warn("mirror milestone to remote failed",
			zap.Int("threshold", threshold), zap.Error(err))
	}

	c.log.Info("payoff milestone reached",
		zap.Int("threshold", threshold),
		zap.Float64("principal", currentPrincipal))
	return threshold, nil
}
