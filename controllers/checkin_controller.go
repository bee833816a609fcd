package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

const privilegeCacheTTL = 5 * time.Minute

// CheckInController exposes the daily check-in and the privilege status
// read model.
type CheckInController struct {
	checkin   *services.CheckInService
	privilege *services.PrivilegeService
}

func NewCheckInController(checkin *services.CheckInService, privilege *services.PrivilegeService) *CheckInController {
	return &CheckInController{checkin: checkin, privilege: privilege}
}

// CheckIn records today's check-in. A same-day repeat is a normal response
// with accepted=false, not an error.
func (c *CheckInController) CheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	result, err := c.checkin.CheckIn(userID, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrInvariantViolation) {
			// Ledger corruption is outside this core's control; alert loudly
			// and refuse to guess.
			utils.Sugar.Errorf("check-in ledger corrupt for user %d: %v", userID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50031, "check-in ledger inconsistent")
			return
		}
		utils.Sugar.Errorf("check-in failed for user %d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to record check-in")
		return
	}

	utils.CacheDelete(privilegeCacheKey(userID))

	message := "check-in recorded"
	if !result.Accepted {
		message = "already checked in today"
	}
	utils.Success(ctx, gin.H{
		"accepted":    result.Accepted,
		"streak_days": result.StreakDays,
		"message":     message,
	})
}

// PrivilegeStatus reports the VIP classification at request time. The
// underlying fields are cached briefly and invalidated by the mutating
// paths (check-in, first post); is_vip is always recomputed against now, so
// a cached row can never report a lapsed grant as active.
func (c *CheckInController) PrivilegeStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	now := time.Now()

	if b, ok := utils.CacheGetBytes(privilegeCacheKey(userID)); ok {
		var cached services.PrivilegeStatus
		if err := json.Unmarshal(b, &cached); err == nil {
			cached.IsVip = cached.ExpiresAt != nil && cached.ExpiresAt.After(now)
			utils.Success(ctx, cached)
			return
		}
	}

	status, err := c.privilege.Status(userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load privilege status")
		return
	}

	utils.CacheSetJSON(privilegeCacheKey(userID), status, privilegeCacheTTL)
	utils.Success(ctx, status)
}

func privilegeCacheKey(userID uint) string {
	return "cache:privilege:user:" + strconv.Itoa(int(userID))
}
