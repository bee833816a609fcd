package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

// NotificationController serves the unread badge counter maintained by the
// event-bus subscriber.
type NotificationController struct {
	counter *services.NotificationCounter
}

func NewNotificationController(counter *services.NotificationCounter) *NotificationController {
	return &NotificationController{counter: counter}
}

// Count returns the caller's unread notification count.
func (n *NotificationController) Count(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	count, err := n.counter.Count(userID)
	if err != nil {
		// Badge counts are best-effort; degrade to zero instead of failing
		// the page.
		utils.Sugar.Warnf("unread count unavailable for user %d: %v", userID, err)
		count = 0
	}
	utils.Success(ctx, gin.H{"unread": count})
}

// MarkRead clears the caller's unread counter.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	if err := n.counter.Reset(userID); err != nil {
		utils.Sugar.Warnf("unread reset failed for user %d: %v", userID, err)
	}
	utils.Success(ctx, gin.H{"unread": 0})
}
