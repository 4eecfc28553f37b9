// Package usage enforces per-role daily generation quotas. Counters live in
// the user_usage table and roll over at midnight UTC.
package usage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adi29tyax/omniai-hub-backend/models"
)

// ErrQuotaExceeded is returned when a consume attempt would pass the plan's
// daily cap for that counter.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Ensure loads the usage row for a user, creating it on first sight and
// zeroing the counters when the last reset predates today (UTC).
func (s *Service) Ensure(ctx context.Context, userID string) (*models.UserUsage, error) {
	var u models.UserUsage
	err := s.DB.WithContext(ctx).
		Where(models.UserUsage{UserID: userID}).
		Attrs(models.UserUsage{Role: "free", LastReset: time.Now().UTC()}).
		FirstOrCreate(&u).Error
	if err != nil {
		return nil, err
	}

	if startOfDay(time.Now().UTC()).After(u.LastReset) {
		u.EpisodesGenerated = 0
		u.AICalls = 0
		u.Keyframes = 0
		u.Animations = 0
		u.TimelineBuilds = 0
		u.LastReset = time.Now().UTC()
		if err := s.DB.WithContext(ctx).Save(&u).Error; err != nil {
			return nil, err
		}
	}
	return &u, nil
}

// Consume checks the user's plan for the counter kind and increments it.
// Returns ErrQuotaExceeded without incrementing when the cap is reached.
func (s *Service) Consume(ctx context.Context, userID, kind string) (*models.UserUsage, error) {
	u, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan := PlanForRole(u.Role)
	if !allow(plan, kind, counterFor(u, kind)) {
		return u, fmt.Errorf("%w: %s for role %s", ErrQuotaExceeded, kind, u.Role)
	}

	bump(u, kind)
	if err := s.DB.WithContext(ctx).Save(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// SetRole changes a user's plan role.
func (s *Service) SetRole(ctx context.Context, userID, role string) error {
	if _, ok := plans[role]; !ok {
		return fmt.Errorf("unknown role %q", role)
	}
	u, err := s.Ensure(ctx, userID)
	if err != nil {
		return err
	}
	u.Role = role
	return s.DB.WithContext(ctx).Save(u).Error
}

// ResetStale zeroes the counters of every row whose last reset predates
// today. The scheduler runs this daily; Ensure also resets lazily so the
// sweep is not load-bearing.
func (s *Service) ResetStale(ctx context.Context) (int64, error) {
	result := s.DB.WithContext(ctx).Model(&models.UserUsage{}).
		Where("last_reset < ?", startOfDay(time.Now().UTC())).
		Updates(map[string]interface{}{
			"episodes_generated": 0,
			"ai_calls":           0,
			"keyframes":          0,
			"animations":         0,
			"timeline_builds":    0,
			"last_reset":         time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// Middleware gates a route on one counter kind. The caller's identity comes
// from the X-User-ID header; who sets that header is the gateway's concern.
func (s *Service) Middleware(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			c.Abort()
			return
		}

		u, err := s.Consume(c.Request.Context(), userID, kind)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error": "daily limit reached",
					"role":  u.Role,
					"kind":  kind,
				})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "usage check failed"})
			}
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("usage", u)
		c.Next()
	}
}

func counterFor(u *models.UserUsage, kind string) int {
	switch kind {
	case KindEpisode:
		return u.EpisodesGenerated
	case KindAICall:
		return u.AICalls
	case KindKeyframe:
		return u.Keyframes
	case KindAnimation:
		return u.Animations
	case KindTimeline:
		return u.TimelineBuilds
	}
	return 0
}

func bump(u *models.UserUsage, kind string) {
	switch kind {
	case KindEpisode:
		u.EpisodesGenerated++
	case KindAICall:
		u.AICalls++
	case KindKeyframe:
		u.Keyframes++
	case KindAnimation:
		u.Animations++
	case KindTimeline:
		u.TimelineBuilds++
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
