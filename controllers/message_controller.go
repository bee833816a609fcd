package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

// MessageController is the message-send path: every send is authorized by
// the access gate before anything is persisted.
type MessageController struct {
	messages *services.MessageService
}

func NewMessageController(messages *services.MessageService) *MessageController {
	return &MessageController{messages: messages}
}

// Send authorizes and persists one private message.
func (m *MessageController) Send(ctx *gin.Context) {
	var req struct {
		RecipientID uint   `json:"recipient_id" binding:"required"`
		Content     string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	outcome, err := m.messages.Send(userID, req.RecipientID, utils.Sanitize(req.Content), time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "recipient not found")
			return
		}
		if errors.Is(err, services.ErrStorageConflict) {
			utils.Error(ctx, http.StatusServiceUnavailable, 50321, "transient storage conflict, retry")
			return
		}
		utils.Sugar.Errorf("send message failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to send message")
		return
	}

	if !outcome.Decision.Allowed {
		code := 40320
		if outcome.Decision.Reason == services.ReasonSelfMessage {
			code = 40321
		}
		utils.Deny(ctx, http.StatusForbidden, code, outcome.Decision.Reason, outcome.Decision.Hint)
		return
	}

	utils.Success(ctx, gin.H{"message": outcome.Message})
}

// Thread lists the conversation between the caller and a peer. Reading an
// existing thread requires only participation, not VIP.
func (m *MessageController) Thread(ctx *gin.Context) {
	peerID, err := strconv.ParseUint(ctx.Param("peer"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid peer id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))
	msgs, err := m.messages.Thread(userID, uint(peerID), limit)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load thread")
		return
	}
	utils.Success(ctx, gin.H{"items": msgs})
}
