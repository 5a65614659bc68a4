package handler

import (
	"context"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// OrderHandler serves purchase orders, sales orders and their returns.
type OrderHandler struct {
	purchases service.PurchaseService
	sales     service.SalesService
}

func NewOrderHandler(purchases service.PurchaseService, sales service.SalesService) *OrderHandler {
	return &OrderHandler{purchases: purchases, sales: sales}
}

// byID adapts a service call keyed by the :id route param.
func byID[T any](message string, call func(ctx context.Context, a policy.Actor, id uuid.UUID) (T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		out, err := call(c.UserContext(), actor(c), id)
		if err != nil {
			return err
		}
		if message == "" {
			return c.JSON(out)
		}
		return done(c, message, out)
	}
}

func (h *OrderHandler) CreatePurchaseOrder(c *fiber.Ctx) error {
	var req model.CreatePurchaseOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	po, err := h.purchases.CreatePurchaseOrder(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Purchase order created", po)
}

func (h *OrderHandler) GetPurchaseOrder() fiber.Handler {
	return byID("", h.purchases.GetPurchaseOrder)
}

func (h *OrderHandler) FinishPurchaseOrder() fiber.Handler {
	return byID("Purchase order finished", h.purchases.FinishPurchaseOrder)
}

func (h *OrderHandler) CancelPurchaseOrder() fiber.Handler {
	return byID("Purchase order cancelled", h.purchases.CancelPurchaseOrder)
}

func (h *OrderHandler) CreatePurchaseReturn(c *fiber.Ctx) error {
	var req model.CreatePurchaseReturnRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	pr, err := h.purchases.CreatePurchaseReturn(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Purchase return created", pr)
}

func (h *OrderHandler) GetPurchaseReturn() fiber.Handler {
	return byID("", h.purchases.GetPurchaseReturn)
}

func (h *OrderHandler) FinishPurchaseReturn() fiber.Handler {
	return byID("Purchase return finished", h.purchases.FinishPurchaseReturn)
}

func (h *OrderHandler) CancelPurchaseReturn() fiber.Handler {
	return byID("Purchase return cancelled", h.purchases.CancelPurchaseReturn)
}

func (h *OrderHandler) CreateSalesOrder(c *fiber.Ctx) error {
	var req model.CreateSalesOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	so, err := h.sales.CreateSalesOrder(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Sales order created", so)
}

func (h *OrderHandler) GetSalesOrder() fiber.Handler {
	return byID("", h.sales.GetSalesOrder)
}

func (h *OrderHandler) FinishSalesOrder() fiber.Handler {
	return byID("Sales order finished", h.sales.FinishSalesOrder)
}

func (h *OrderHandler) CancelSalesOrder() fiber.Handler {
	return byID("Sales order cancelled", h.sales.CancelSalesOrder)
}

func (h *OrderHandler) CreateSalesReturn(c *fiber.Ctx) error {
	var req model.CreateSalesReturnRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sr, err := h.sales.CreateSalesReturn(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Sales return created", sr)
}

func (h *OrderHandler) GetSalesReturn() fiber.Handler {
	return byID("", h.sales.GetSalesReturn)
}

func (h *OrderHandler) FinishSalesReturn() fiber.Handler {
	return byID("Sales return finished", h.sales.FinishSalesReturn)
}

func (h *OrderHandler) CancelSalesReturn() fiber.Handler {
	return byID("Sales return cancelled", h.sales.CancelSalesReturn)
}
