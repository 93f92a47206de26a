package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
	"github.com/jhoicas/autocare-estoque/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC        *usecase.ProductUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Queries          *inventory.QueryUseCase
	JWTSecret        string
	ServiceName      string
	// MetricsHandler se expone en MetricsPath si no es nil.
	MetricsHandler nethttp.Handler
	MetricsPath    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(RoleAdmin, RoleBodeguero, RoleMecanico)
	stockRoles := RequireRole(RoleAdmin, RoleBodeguero)

	productHandler := NewProductHandler(deps.ProductUC)
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Queries)

	// Products
	products := protected.Group("/products")
	products.Get("/", anyRole, productHandler.List)
	products.Post("/", stockRoles, productHandler.Create)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Put("/:id", stockRoles, productHandler.Update)
	products.Delete("/:id", RequireRole(RoleAdmin), productHandler.Deactivate)
	products.Put("/:id/discontinued", stockRoles, productHandler.SetDiscontinued)
	products.Post("/:id/stock-adjustment", stockRoles, inventoryHandler.AdjustStock)
	products.Get("/:id/batches", anyRole, inventoryHandler.ProductBatches)
	products.Get("/:id/batches/report", anyRole, inventoryHandler.BatchReport)

	// Inventory: el mecánico registra salidas de piezas para las órdenes de servicio.
	invGroup := protected.Group("/inventory")
	invGroup.Post("/movements", anyRole, inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", anyRole, inventoryHandler.ListMovements)
	invGroup.Get("/movements/:id", anyRole, inventoryHandler.GetMovement)
	invGroup.Get("/batches", anyRole, inventoryHandler.ListBatches)
	invGroup.Get("/batches/:id", anyRole, inventoryHandler.GetBatch)
}
