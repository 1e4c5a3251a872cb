package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyfeworks/toolkit-backend/internal/http/response"
	"github.com/lyfeworks/toolkit-backend/internal/services"
)

type WaitlistHandler struct {
	waitlistService services.WaitlistService
}

func NewWaitlistHandler(waitlistService services.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlistService: waitlistService}
}

// POST /api/waitlist
// body: { "email": "...", "referralSource": "..." }
func (wh *WaitlistHandler) Join(c *gin.Context) {
	var req struct {
		Email          string `json:"email"`
		ReferralSource string `json:"referralSource"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	out, err := wh.waitlistService.Join(c.Request.Context(), services.JoinWaitlistInput{
		Email:          req.Email,
		ReferralSource: req.ReferralSource,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	response.RespondOK(c, gin.H{
		"success":           true,
		"alreadySubscribed": out.AlreadySubscribed,
	})
}

// POST /api/waitlist/confirm
// body: { "email": "..." }
func (wh *WaitlistHandler) Confirm(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := wh.waitlistService.SendConfirmation(c.Request.Context(), req.Email)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	response.RespondOK(c, gin.H{
		"success": true,
		"emailId": result.EmailID,
	})
}
