package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/autocare-estoque/internal/application/dto"
	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

// InventoryHandler maneja movimientos, ajustes y consultas de lotes (protegido).
type InventoryHandler struct {
	uc      *inventory.RegisterMovementUseCase
	queries *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.RegisterMovementUseCase, queries *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc, queries: queries}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  ENTRY crea un lote; EXIT consume lotes en orden FIFO. Las salidas
//
//	sin stock suficiente devuelven 409 con available y requested.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity, reason, unit_cost y precio (entradas)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if GetRole(c) == RoleMecanico && in.Type != entity.MovementTypeExit {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el mecánico solo registra salidas"})
	}
	out, err := h.uc.RegisterMovementFromRequest(c.UserContext(), GetUserID(c), GetUserName(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// AdjustStock godoc
// @Summary      Ajustar stock a una cantidad objetivo
// @Description  Genera una entrada o salida por la diferencia. Sin diferencia no se registra movimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del producto"
// @Param        body  body  dto.StockAdjustmentRequest  true  "target_quantity"
// @Success      200   {object}  dto.StockAdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock-adjustment [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.StockAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.AdjustStockFromRequest(c.UserContext(), GetUserID(c), GetUserName(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  int     false  "Producto"
// @Param        type        query  string  false  "ENTRY | EXIT"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	req := dto.MovementListRequest{PageRequest: pageFromQuery(c), Type: c.Query("type")}
	var ok bool
	if req.ProductID, ok = queryInt64(c, "product_id"); !ok {
		return badRequest(c, "INVALID_QUERY", "product_id inválido")
	}
	out, err := h.queries.ListMovements(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.queries.GetMovement(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListBatches godoc
// @Summary      Listar lotes
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        only_available  query  bool  false  "Solo lotes con saldo (default true)"
// @Param        supplier_id     query  int   false  "Proveedor"
// @Success      200  {object}  dto.BatchListResponse
// @Router       /api/inventory/batches [get]
func (h *InventoryHandler) ListBatches(c *fiber.Ctx) error {
	req := dto.BatchListRequest{PageRequest: pageFromQuery(c)}
	var ok bool
	if req.OnlyAvailable, ok = queryBool(c, "only_available"); !ok {
		return badRequest(c, "INVALID_QUERY", "only_available inválido")
	}
	if req.SupplierID, ok = queryInt64(c, "supplier_id"); !ok {
		return badRequest(c, "INVALID_QUERY", "supplier_id inválido")
	}
	out, err := h.queries.ListAllBatches(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBatch godoc
// @Summary      Obtener lote por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id} [get]
func (h *InventoryHandler) GetBatch(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.queries.GetBatch(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ProductBatches godoc
// @Summary      Lotes de un producto en orden FIFO
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id              path   int   true   "ID del producto"
// @Param        only_available  query  bool  false  "Solo lotes con saldo (default false)"
// @Success      200  {array}   dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/batches [get]
func (h *InventoryHandler) ProductBatches(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.queries.ListBatches(c.UserContext(), id, c.QueryBool("only_available", false))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BatchReport godoc
// @Summary      Reporte PDF de lotes del producto
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/batches/report [get]
func (h *InventoryHandler) BatchReport(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	pdf, product, err := h.queries.BatchReport(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="lotes-%s.pdf"`, product.Code))
	return c.Send(pdf)
}
