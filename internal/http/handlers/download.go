package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lyfeworks/toolkit-backend/internal/http/response"
	"github.com/lyfeworks/toolkit-backend/internal/services"
)

type DownloadHandler struct {
	downloadService services.DownloadService
}

func NewDownloadHandler(downloadService services.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloadService: downloadService}
}

// POST /api/verify-purchase
// body: { "sessionId": "cs_...", "email": "..." }
func (dh *DownloadHandler) VerifyPurchase(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	out, err := dh.downloadService.VerifyPurchase(c.Request.Context(), services.VerifyPurchaseInput{
		SessionID:   req.SessionID,
		Email:       req.Email,
		RequesterIP: c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	response.RespondOK(c, gin.H{
		"downloadUrl":        out.DownloadURL,
		"fileName":           out.FileName,
		"remainingDownloads": out.RemainingDownloads,
		"expiresAt":          out.URLExpiresAt.Format(time.RFC3339),
	})
}
