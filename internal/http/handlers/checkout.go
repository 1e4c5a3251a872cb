package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyfeworks/toolkit-backend/internal/http/response"
	"github.com/lyfeworks/toolkit-backend/internal/services"
)

type CheckoutHandler struct {
	checkoutService services.CheckoutService
}

func NewCheckoutHandler(checkoutService services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// POST /api/create-checkout-session
// body: { "price": 4900, "customerInfo": { "email": "...", "name": "..." }, "couponCode": "..." }
func (ch *CheckoutHandler) CreateSession(c *gin.Context) {
	var req struct {
		Price        int64 `json:"price"`
		CustomerInfo struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"customerInfo"`
		CouponCode string `json:"couponCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	out, err := ch.checkoutService.CreateSession(c.Request.Context(), services.CreateCheckoutInput{
		PriceCents:    req.Price,
		CustomerEmail: req.CustomerInfo.Email,
		CustomerName:  req.CustomerInfo.Name,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	response.RespondOK(c, gin.H{"url": out.URL})
}
