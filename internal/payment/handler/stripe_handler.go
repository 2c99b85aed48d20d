package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"fest-engine/internal/logger"
	"fest-engine/internal/payment/services"
	"fest-engine/internal/utils"
)

type StripeHandler struct {
	stripeService *services.StripeService
	webhookSecret string
	logger        *logger.Logger
}

func NewStripeHandler(stripeService *services.StripeService, webhookSecret string, log *logger.Logger) *StripeHandler {
	return &StripeHandler{
		stripeService: stripeService,
		webhookSecret: webhookSecret,
		logger:        log,
	}
}

type feeIntentRequest struct {
	RegistrationID string `json:"registrationId" binding:"required"`
}

// FeeIntent returns the client secret the frontend needs to confirm the
// registration fee payment.
func (h *StripeHandler) FeeIntent(c *gin.Context) {
	var req feeIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid request payload", err.Error()))
		return
	}

	payment, err := h.stripeService.FeeIntent(req.RegistrationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("failed to get fee intent", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("fee intent", gin.H{
		"paymentId":    payment.PaymentID,
		"amount":       payment.Amount,
		"currency":     payment.Currency,
		"status":       payment.Status,
		"clientSecret": payment.ClientSecret,
	}))
}

// Webhook applies Stripe's signed intent outcomes to the fee records.
func (h *StripeHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("failed to read payload", err.Error()))
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("STRIPE", fmt.Sprintf("Webhook signature verification failed: %v", err))
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid signature", err.Error()))
		return
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("failed to parse intent", err.Error()))
			return
		}
		succeeded := event.Type == "payment_intent.succeeded"
		if err := h.stripeService.ApplyIntentOutcome(intent.ID, succeeded); err != nil {
			h.logger.Warn("STRIPE", fmt.Sprintf("Failed to apply intent outcome for %s: %v", intent.ID, err))
		}
	default:
		h.logger.Debug("STRIPE", "Ignoring webhook event type "+string(event.Type))
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("webhook processed", nil))
}
