package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyfeworks/toolkit-backend/internal/http/response"
	"github.com/lyfeworks/toolkit-backend/internal/services"
)

type QuizHandler struct {
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// POST /api/quiz-results
// body: { "email": "...", "score": 10, "tier": 2 }
// The tier field is accepted for compatibility with the quiz UI but the
// server recomputes it from the score.
func (qh *QuizHandler) SubmitResults(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Score int    `json:"score"`
		Tier  int    `json:"tier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	out, err := qh.quizService.SubmitResults(c.Request.Context(), services.QuizResultsInput{
		Email: req.Email,
		Score: req.Score,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	response.RespondOK(c, gin.H{
		"success":     true,
		"downloadUrl": out.DownloadURL,
		"tier":        out.Tier,
		"tierLabel":   out.TierLabel,
	})
}
