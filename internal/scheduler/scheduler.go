package scheduler

import (
	"context"
	"time"

	"account-backend/internal/repository"
	"account-backend/internal/revocation"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Retention for revoked refresh records before the sweep deletes them
const revokedRetention = 24 * time.Hour

const sweepTimeout = 30 * time.Second

var scheduler *gocron.Scheduler

// Initialize starts the background sweeps that clear expired blacklist
// entries, refresh records, and verification codes. Sweeping is safe at any
// time: past expiry every credential fails validation on its own.
func Initialize(revocations revocation.Store, refreshRepo *repository.RefreshTokenRepository, codeRepo *repository.VerificationCodeRepository) {
	scheduler = gocron.NewScheduler(time.UTC)

	_, err := scheduler.Every(10).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		sweep(ctx, revocations, refreshRepo, codeRepo)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to schedule credential sweep")
	}

	scheduler.StartAsync()
}

func sweep(ctx context.Context, revocations revocation.Store, refreshRepo *repository.RefreshTokenRepository, codeRepo *repository.VerificationCodeRepository) {
	now := time.Now()

	if n, err := revocations.SweepExpired(ctx, now); err != nil {
		log.Error().Err(err).Msg("Blacklist sweep failed")
	} else if n > 0 {
		log.Info().Int64("removed", n).Msg("Swept expired blacklist entries")
	}

	if n, err := refreshRepo.DeleteExpired(ctx, now, revokedRetention); err != nil {
		log.Error().Err(err).Msg("Refresh token sweep failed")
	} else if n > 0 {
		log.Info().Int64("removed", n).Msg("Swept expired refresh tokens")
	}

	if n, err := codeRepo.DeleteExpired(ctx, now); err != nil {
		log.Error().Err(err).Msg("Verification code sweep failed")
	} else if n > 0 {
		log.Info().Int64("removed", n).Msg("Swept expired verification codes")
	}
}

// Stop gracefully shuts down the scheduler
func Stop() {
	if scheduler != nil {
		scheduler.Stop()
	}
}
