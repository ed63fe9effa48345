package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC       *inventory.ProductUseCase
	AdjustStock     *inventory.AdjustStockUseCase
	ListMovements   *inventory.ListMovementsUseCase
	CreateOrder     *purchasing.CreateOrderUseCase
	TransitionOrder *purchasing.TransitionOrderUseCase
	ReceiveOrder    *purchasing.ReceiveOrderUseCase
	QueryOrders     *purchasing.QueryUseCase
	OrderPDF        *purchasing.PDFUseCase
	JWTSecret       string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(entity.RoleAdmin, entity.RoleStaff)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Products + ajustes
	productHandler := NewProductHandler(deps.ProductUC)
	inventoryHandler := NewInventoryHandler(deps.AdjustStock, deps.ListMovements)
	products := api.Group("/products")
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", anyRole, productHandler.List)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Dispose)
	products.Post("/:id/adjustments", anyRole, inventoryHandler.Adjust)
	products.Get("/:id/movements", anyRole, inventoryHandler.ProductMovements)
	products.Get("/:id/ledger/verify", anyRole, productHandler.VerifyLedger)

	// Ledger
	api.Get("/movements", anyRole, inventoryHandler.ListMovements)

	// Purchase orders
	orderHandler := NewPurchaseOrderHandler(deps.CreateOrder, deps.TransitionOrder, deps.ReceiveOrder, deps.QueryOrders, deps.OrderPDF)
	orders := api.Group("/purchase-orders")
	orders.Post("/", adminOnly, orderHandler.Create)
	orders.Get("/", anyRole, orderHandler.List)
	orders.Get("/:id", anyRole, orderHandler.GetByID)
	orders.Put("/:id", adminOnly, orderHandler.UpdateHeader)
	orders.Post("/:id/transitions", adminOnly, orderHandler.Transition)
	orders.Post("/:id/receipts", anyRole, orderHandler.Receive)
	orders.Get("/:id/pdf", anyRole, orderHandler.DownloadPDF)
}
