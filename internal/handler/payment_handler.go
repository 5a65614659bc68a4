package handler

import (
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

func (h *PaymentHandler) RecordPayment(c *fiber.Ctx) error {
	var req model.RecordPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	summary, err := h.service.RecordPayment(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Payment recorded", summary)
}

// GetPayments lists the payment history of one order.
// Query params: parent_type (po|so), parent_id
func (h *PaymentHandler) GetPayments(c *fiber.Ctx) error {
	parentID, err := uuid.Parse(c.Query("parent_id"))
	if err != nil {
		return apperror.Validation("parent_id must be a valid id")
	}
	summary, err := h.service.ListPayments(c.UserContext(), actor(c), model.PaymentParentType(c.Query("parent_type")), parentID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
