package handler

import (
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultMovementLimit = 50

type MasterDataHandler struct {
	service   service.MasterDataService
	sequences service.SequenceService
}

func NewMasterDataHandler(s service.MasterDataService, sequences service.SequenceService) *MasterDataHandler {
	return &MasterDataHandler{service: s, sequences: sequences}
}

func (h *MasterDataHandler) CreateProduct(c *fiber.Ctx) error {
	var req model.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.service.CreateProduct(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Product created", product)
}

func (h *MasterDataHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req model.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.service.UpdateProduct(c.UserContext(), actor(c), id, req)
	if err != nil {
		return err
	}
	return done(c, "Product updated", product)
}

func (h *MasterDataHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	product, err := h.service.GetProduct(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *MasterDataHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// GetProductMovements lists the newest stock movements of a product.
// Query params: limit (default 50)
func (h *MasterDataHandler) GetProductMovements(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultMovementLimit)
	if err != nil {
		return err
	}
	movements, err := h.service.ListProductMovements(c.UserContext(), actor(c), id, limit)
	if err != nil {
		return err
	}
	return c.JSON(movements)
}

func (h *MasterDataHandler) CreateSupplier(c *fiber.Ctx) error {
	var req model.PartyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	supplier, err := h.service.CreateSupplier(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Supplier created", supplier)
}

func (h *MasterDataHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req model.PartyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	supplier, err := h.service.UpdateSupplier(c.UserContext(), actor(c), id, req)
	if err != nil {
		return err
	}
	return done(c, "Supplier updated", supplier)
}

func (h *MasterDataHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.service.ListSuppliers(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(suppliers)
}

func (h *MasterDataHandler) CreateCustomer(c *fiber.Ctx) error {
	var req model.PartyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	customer, err := h.service.CreateCustomer(c.UserContext(), actor(c), req)
	if err != nil {
		return err
	}
	return created(c, "Customer created", customer)
}

func (h *MasterDataHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req model.PartyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	customer, err := h.service.UpdateCustomer(c.UserContext(), actor(c), id, req)
	if err != nil {
		return err
	}
	return done(c, "Customer updated", customer)
}

func (h *MasterDataHandler) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.service.ListCustomers(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(customers)
}

// NextCode issues the next sequential code for a prefix.
// POST /api/v1/codes/:prefix
func (h *MasterDataHandler) NextCode(c *fiber.Ctx) error {
	code, err := h.sequences.NextCode(c.UserContext(), actor(c), c.Params("prefix"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"code": code})
}
