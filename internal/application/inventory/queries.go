package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/autocare-estoque/internal/application/dto"
	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// QueryUseCase lecturas del libro de inventario. Ninguna modifica estado.
type QueryUseCase struct {
	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
	movRepo     repository.MovementRepository
	report      BatchReportGenerator
}

// NewQueryUseCase construye el caso de uso. report puede ser nil si no se generan PDFs.
func NewQueryUseCase(
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	movRepo repository.MovementRepository,
	report BatchReportGenerator,
) *QueryUseCase {
	return &QueryUseCase{productRepo: productRepo, batchRepo: batchRepo, movRepo: movRepo, report: report}
}

// ListBatches lotes de un producto en orden FIFO. onlyAvailable deja solo los que tienen saldo.
func (uc *QueryUseCase) ListBatches(ctx context.Context, productID int64, onlyAvailable bool) ([]dto.BatchResponse, error) {
	if _, err := uc.product(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := uc.batchesOf(ctx, productID, onlyAvailable)
	if err != nil {
		return nil, err
	}
	return toBatchResponses(batches), nil
}

// ListAllBatches lotes de todos los productos, más recientes primero. Por defecto solo disponibles.
func (uc *QueryUseCase) ListAllBatches(ctx context.Context, req dto.BatchListRequest) (*dto.BatchListResponse, error) {
	req.DefaultPage()
	onlyAvailable := true
	if req.OnlyAvailable != nil {
		onlyAvailable = *req.OnlyAvailable
	}
	batches, err := uc.batchRepo.List(ctx, repository.BatchFilter{
		OnlyAvailable: onlyAvailable,
		SupplierID:    req.SupplierID,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &dto.BatchListResponse{
		Items: toBatchResponses(batches),
		Page:  dto.PageResponse{Limit: req.Limit, Offset: req.Offset},
	}, nil
}

// GetBatch obtiene un lote por ID.
func (uc *QueryUseCase) GetBatch(ctx context.Context, id int64) (*dto.BatchResponse, error) {
	b, err := uc.batchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	out := ToBatchResponse(b)
	return &out, nil
}

// ListMovements movimientos más recientes primero, con filtros de producto y tipo.
func (uc *QueryUseCase) ListMovements(ctx context.Context, req dto.MovementListRequest) (*dto.MovementListResponse, error) {
	req.DefaultPage()
	if req.Type != "" && req.Type != entity.MovementTypeEntry && req.Type != entity.MovementTypeExit {
		return nil, domain.NewValidationError("type", "el tipo debe ser ENTRY o EXIT")
	}
	movs, err := uc.movRepo.List(ctx, repository.MovementFilter{
		ProductID: req.ProductID,
		Type:      req.Type,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: req.Limit, Offset: req.Offset},
	}, nil
}

// GetMovement obtiene un movimiento por ID.
func (uc *QueryUseCase) GetMovement(ctx context.Context, id int64) (*dto.MovementResponse, error) {
	m, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	out := ToMovementResponse(m)
	return &out, nil
}

// BatchReport genera el PDF de lotes (incluye agotados) del producto.
func (uc *QueryUseCase) BatchReport(ctx context.Context, productID int64) ([]byte, *entity.Product, error) {
	if uc.report == nil {
		return nil, nil, domain.ErrNotFound
	}
	product, err := uc.product(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	batches, err := uc.batchesOf(ctx, productID, false)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := uc.report.GenerateBatchReport(ctx, product, batches, time.Now())
	if err != nil {
		return nil, nil, err
	}
	return pdf, product, nil
}

func (uc *QueryUseCase) product(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// batchesOf no usa ListConsumable: esa consulta bloquea filas y es solo para salidas.
func (uc *QueryUseCase) batchesOf(ctx context.Context, productID int64, onlyAvailable bool) ([]*entity.Batch, error) {
	batches, err := uc.batchRepo.ListByProduct(ctx, productID)
	if err != nil || !onlyAvailable {
		return batches, err
	}
	available := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Consumable() {
			available = append(available, b)
		}
	}
	return available, nil
}
