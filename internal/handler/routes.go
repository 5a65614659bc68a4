package handler

import (
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth       *AuthHandler
	Dashboard  *DashboardHandler
	MasterData *MasterDataHandler
	Orders     *OrderHandler
	Payments   *PaymentHandler
	Roles      *RoleHandler
}

// Register mounts the API under /api/v1 and the event stream under /ws.
func Register(app *fiber.App, h Handlers, auth middleware.Authenticator, hub *ws.Hub) {
	api := app.Group("/api/v1")
	can := middleware.RequireOperation

	// ============ PUBLIC ROUTES ============
	authGroup := api.Group("/auth")
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/change-password", h.Auth.ChangePassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(auth))
	protected.Get("/auth/me", h.Auth.Me)
	protected.Get("/roles", h.Roles.GetRoles)

	protected.Get("/dashboard/stats", h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", h.Dashboard.GetStockMovement)

	protected.Get("/products", h.MasterData.GetProducts)
	protected.Post("/products", can(policy.OpManageMasterData), h.MasterData.CreateProduct)
	protected.Get("/products/:id", h.MasterData.GetProduct)
	protected.Put("/products/:id", can(policy.OpManageMasterData), h.MasterData.UpdateProduct)
	protected.Get("/products/:id/movements", h.MasterData.GetProductMovements)

	protected.Get("/suppliers", h.MasterData.GetSuppliers)
	protected.Post("/suppliers", can(policy.OpManageMasterData), h.MasterData.CreateSupplier)
	protected.Put("/suppliers/:id", can(policy.OpManageMasterData), h.MasterData.UpdateSupplier)
	protected.Get("/customers", h.MasterData.GetCustomers)
	protected.Post("/customers", can(policy.OpManageMasterData), h.MasterData.CreateCustomer)
	protected.Put("/customers/:id", can(policy.OpManageMasterData), h.MasterData.UpdateCustomer)

	protected.Post("/codes/:prefix", can(policy.OpNextCode), h.MasterData.NextCode)

	po := protected.Group("/purchase-orders")
	po.Post("", h.Orders.CreatePurchaseOrder)
	po.Get("/:id", h.Orders.GetPurchaseOrder())
	po.Post("/:id/finish", h.Orders.FinishPurchaseOrder())
	po.Post("/:id/cancel", h.Orders.CancelPurchaseOrder())

	pr := protected.Group("/purchase-returns")
	pr.Post("", h.Orders.CreatePurchaseReturn)
	pr.Get("/:id", h.Orders.GetPurchaseReturn())
	pr.Post("/:id/finish", h.Orders.FinishPurchaseReturn())
	pr.Post("/:id/cancel", h.Orders.CancelPurchaseReturn())

	so := protected.Group("/sales-orders")
	so.Post("", h.Orders.CreateSalesOrder)
	so.Get("/:id", h.Orders.GetSalesOrder())
	so.Post("/:id/finish", h.Orders.FinishSalesOrder())
	so.Post("/:id/cancel", can(policy.OpCancelSalesOrder), h.Orders.CancelSalesOrder())

	sr := protected.Group("/sales-returns")
	sr.Post("", h.Orders.CreateSalesReturn)
	sr.Get("/:id", h.Orders.GetSalesReturn())
	sr.Post("/:id/finish", h.Orders.FinishSalesReturn())
	sr.Post("/:id/cancel", h.Orders.CancelSalesReturn())

	protected.Post("/payments", h.Payments.RecordPayment)
	protected.Get("/payments", h.Payments.GetPayments)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register <- c
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
