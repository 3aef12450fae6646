package service

import (
	"bitwise74/expense-api/internal/model"
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClearExpiredResetTokens drops reset tokens that expired before now. They
// would fail verification anyway, this only keeps them from lingering.
func ClearExpiredResetTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	r := db.WithContext(ctx).
		Model(model.User{}).
		Where("reset_token IS NOT NULL AND reset_token_expires_at < ?", now).
		Updates(map[string]any{
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		})

	return r.RowsAffected, r.Error
}

// TokenCleanup schedules ClearExpiredResetTokens on a cron spec. The
// returned scheduler is already started, stop it on shutdown.
func TokenCleanup(spec string, db *gorm.DB) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		n, err := ClearExpiredResetTokens(context.Background(), db, time.Now())
		if err != nil {
			zap.L().Error("Failed to clean up expired reset tokens", zap.Error(err))
			return
		}

		if n > 0 {
			zap.L().Debug("Cleaned up expired reset tokens", zap.Int64("count", n))
		}
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Token cleanup attached", zap.String("schedule", spec))

	c.Start()
	return c, nil
}
