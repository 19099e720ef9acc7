package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/trisend/trisend/internal/app/service"
	"github.com/trisend/trisend/internal/infra/paystack"
	"go.uber.org/zap"
)

// PaymentDeps groups dependencies required by payment handlers.
type PaymentDeps struct {
	Logger        *zap.Logger
	Payments      *service.PaymentService
	WebhookSecret string
}

// PaymentHandler serves payment verification and the gateway webhook.
type PaymentHandler struct {
	logger   *zap.Logger
	payments *service.PaymentService
	secret   string
}

// NewPaymentHandler creates a payment handler.
func NewPaymentHandler(deps PaymentDeps) *PaymentHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		logger:   logger,
		payments: deps.Payments,
		secret:   deps.WebhookSecret,
	}
}

// Register wires payment routes onto the provided router.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Post("/api/verify-payment", h.VerifyPayment)
	router.Post("/webhook/paystack", h.Webhook)
}

// VerifyPaymentRequest is the body of POST /api/verify-payment.
type VerifyPaymentRequest struct {
	Reference string `json:"reference" form:"reference"`
	UserID    string `json:"userId" form:"userId"`
}

func paymentError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// VerifyPayment handles POST /api/verify-payment
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil || req.Reference == "" || req.UserID == "" {
		return paymentError(c, fiber.StatusBadRequest, "Missing reference or userId")
	}
	if !h.payments.Configured() {
		return paymentError(c, fiber.StatusInternalServerError, "Payment service not configured")
	}

	tx, err := h.payments.VerifyAndUpgrade(c.UserContext(), req.Reference, req.UserID)
	switch {
	case errors.Is(err, service.ErrPaymentNotSuccessful):
		return paymentError(c, fiber.StatusBadRequest, "Payment not successful")
	case errors.Is(err, service.ErrIncorrectAmount):
		return paymentError(c, fiber.StatusBadRequest, "Incorrect payment amount")
	case err != nil:
		h.logger.Error("payment verification failed", zap.String("reference", req.Reference), zap.Error(err))
		return paymentError(c, fiber.StatusInternalServerError, "Verification failed.")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"reference": req.Reference,
			"amount":    float64(tx.Amount) / 100,
			"email":     tx.Email,
		},
	})
}

// Webhook handles POST /webhook/paystack. The gateway always gets 200;
// unsigned or unknown deliveries are dropped after logging.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	body := c.Body()
	if !paystack.VerifySignature(h.secret, body, c.Get(paystack.SignatureHeader)) {
		h.logger.Warn("invalid paystack webhook signature")
		return c.SendStatus(fiber.StatusOK)
	}

	event, tx, err := paystack.ParseEvent(body)
	if err != nil {
		h.logger.Warn("undecodable paystack webhook", zap.Error(err))
		return c.SendStatus(fiber.StatusOK)
	}
	h.logger.Info("paystack webhook", zap.String("event", event))

	if event == paystack.EventChargeOK {
		if err := h.payments.ApplyCharge(c.UserContext(), tx); err != nil {
			h.logger.Error("webhook plan upgrade failed", zap.Error(err))
		}
	}
	return c.SendStatus(fiber.StatusOK)
}
