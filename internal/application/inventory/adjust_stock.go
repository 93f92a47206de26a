package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/autocare-estoque/internal/application/dto"
	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// MovementTypeAdjustment solo etiqueta métricas y logs; el ajuste se registra como ENTRY o EXIT.
const MovementTypeAdjustment = "ADJUSTMENT"

const defaultAdjustmentReason = "Ajuste manual"

// StockAdjustmentInput lleva el stock de un producto a una cantidad absoluta.
// Los precios solo se usan si el ajuste resulta en una entrada; por defecto se toman
// el costo promedio y el precio de venta actuales del producto.
type StockAdjustmentInput struct {
	UserID         string
	UserName       string
	ProductID      int64
	TargetQuantity decimal.Decimal
	Reason         string
	Notes          string
	UnitCost       *decimal.Decimal
	UnitSalePrice  *decimal.Decimal
	MarginPercent  *decimal.Decimal
}

// StockAdjustmentResult resultado del ajuste; Movement es nil si la cantidad ya era la pedida.
type StockAdjustmentResult struct {
	PreviousQuantity decimal.Decimal
	Movement         *entity.Movement
	Product          *entity.Product
}

// AdjustStock calcula la diferencia contra la cantidad actual bajo el lock del producto:
// positiva genera una ENTRY, negativa una EXIT FIFO, cero no registra nada.
func (uc *RegisterMovementUseCase) AdjustStock(ctx context.Context, input StockAdjustmentInput) (*StockAdjustmentResult, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.AdjustStock", trace.WithAttributes(
		attribute.Int64("product_id", input.ProductID),
	))
	defer span.End()
	run := uc.startRun(span, input.ProductID, MovementTypeAdjustment)

	if input.ProductID <= 0 {
		return nil, run.fail(domain.NewValidationError("product_id", "producto requerido"))
	}
	if input.TargetQuantity.LessThan(decimal.Zero) {
		return nil, run.fail(domain.NewValidationError("target_quantity", "la cantidad objetivo no puede ser negativa"))
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = defaultAdjustmentReason
	}
	run.to(StateValidated)

	if err := uc.ensureActive(ctx, input.ProductID); err != nil {
		return nil, run.fail(err)
	}

	var result *StockAdjustmentResult
	err := uc.serializer.Do(ctx, input.ProductID, func(
		movRepo repository.MovementRepository,
		batchRepo repository.BatchRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := lockProduct(ctx, productRepo, input.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return domain.ErrProductInactive
		}
		previous := product.CurrentQuantity
		diff := input.TargetQuantity.Sub(previous)
		if diff.IsZero() {
			result = &StockAdjustmentResult{PreviousQuantity: previous, Product: product}
			return nil
		}

		notes := fmt.Sprintf("Ajuste de estoque: %s → %s", previous.String(), input.TargetQuantity.String())
		if n := strings.TrimSpace(input.Notes); n != "" {
			notes += ". " + n
		}
		mi := MovementInputDTO{
			UserID:    input.UserID,
			UserName:  input.UserName,
			ProductID: product.ID,
			Quantity:  diff.Abs(),
			Reason:    reason,
			Notes:     notes,
		}
		if diff.IsPositive() {
			mi.Type = entity.MovementTypeEntry
			mi.UnitCost, mi.UnitSalePrice, mi.MarginPercent = adjustmentPrices(product, input)
		} else {
			mi.Type = entity.MovementTypeExit
		}
		if err := validateMovement(mi); err != nil {
			return err
		}

		now := uc.now()
		mov, err := uc.apply(ctx, run, movRepo, batchRepo, product, mi, now)
		if err != nil {
			return err
		}
		if err := RecomputeProduct(ctx, productRepo, batchRepo, movRepo, product, now); err != nil {
			return err
		}
		result = &StockAdjustmentResult{PreviousQuantity: previous, Movement: mov, Product: product}
		return nil
	})
	if err != nil {
		return nil, run.fail(err)
	}
	if result.Movement == nil {
		run.to(StateCommitted)
		uc.observer.MovementFinished(MovementTypeAdjustment, StateCommitted, 0)
		return result, nil
	}
	run.commit(result.Movement)
	return result, nil
}

// AdjustStockFromRequest adapta el request HTTP a AdjustStock.
func (uc *RegisterMovementUseCase) AdjustStockFromRequest(ctx context.Context, userID, userName string, productID int64, in dto.StockAdjustmentRequest) (*dto.StockAdjustmentResponse, error) {
	res, err := uc.AdjustStock(ctx, StockAdjustmentInput{
		UserID:         userID,
		UserName:       userName,
		ProductID:      productID,
		TargetQuantity: in.TargetQuantity,
		Reason:         in.Reason,
		Notes:          in.Notes,
		UnitCost:       in.UnitCost,
		UnitSalePrice:  in.UnitSalePrice,
		MarginPercent:  in.MarginPercent,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.StockAdjustmentResponse{
		ProductID:        res.Product.ID,
		PreviousQuantity: res.PreviousQuantity,
		NewQuantity:      res.Product.CurrentQuantity,
		Difference:       res.Product.CurrentQuantity.Sub(res.PreviousQuantity),
		Product:          ToProductResponse(res.Product),
	}
	if res.Movement != nil {
		m := ToMovementResponse(res.Movement)
		out.Movement = &m
	}
	return out, nil
}

func adjustmentPrices(p *entity.Product, in StockAdjustmentInput) (cost, sale, margin *decimal.Decimal) {
	cost, sale, margin = in.UnitCost, in.UnitSalePrice, in.MarginPercent
	if cost == nil && p.AverageCost.IsPositive() {
		c := p.AverageCost
		cost = &c
	}
	if sale == nil && margin == nil && p.SalePrice.IsPositive() {
		s := p.SalePrice
		sale = &s
	}
	return cost, sale, margin
}
