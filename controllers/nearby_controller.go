package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

// NearbyController exposes the eligibility predicate consumed by the
// proximity-search collaborator. The spatial query itself lives elsewhere;
// this endpoint only answers allow/deny.
type NearbyController struct {
	access *services.AccessService
}

func NewNearbyController(access *services.AccessService) *NearbyController {
	return &NearbyController{access: access}
}

// Authorize answers whether the caller may run a nearby-user discovery
// right now. Strict gate: active VIP at this instant, no grace window.
func (n *NearbyController) Authorize(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	decision, err := n.access.CanDiscoverNearby(userID, time.Now())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to evaluate nearby access")
		return
	}

	if !decision.Allowed {
		utils.Deny(ctx, http.StatusForbidden, 40330, decision.Reason, decision.Hint)
		return
	}
	utils.Success(ctx, decision)
}
