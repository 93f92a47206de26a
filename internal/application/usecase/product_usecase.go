package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/application/dto"
	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	ledger "github.com/jhoicas/autocare-estoque/internal/domain/inventory"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// ProductUseCase casos de uso de datos maestros del producto.
// Cantidad, costo promedio y precio de venta solo cambian vía movimientos.
type ProductUseCase struct {
	repo       repository.ProductRepository
	serializer *inventory.Serializer
	now        func() time.Time
}

// NewProductUseCase construye el caso de uso. Los cambios que afectan el estado calculado
// pasan por el mismo serializer que los movimientos.
func NewProductUseCase(repo repository.ProductRepository, serializer *inventory.Serializer) *ProductUseCase {
	return &ProductUseCase{repo: repo, serializer: serializer, now: time.Now}
}

// Create registra un producto nuevo. Arranca sin stock (SEM_ESTOQUE).
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" {
		return nil, domain.NewValidationError("code", "el código es obligatorio")
	}
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "el nombre es obligatorio")
	}
	if in.Unit == "" {
		in.Unit = entity.UnitUnit
	}
	in.Unit = strings.ToUpper(in.Unit)
	if !entity.ValidUnit(in.Unit) {
		return nil, domain.NewValidationError("unit", "unidad de medida no admitida")
	}
	if in.MinimumQuantity.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("minimum_quantity", "el stock mínimo no puede ser negativo")
	}
	existing, err := uc.repo.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := uc.now()
	product := &entity.Product{
		Code:            in.Code,
		Name:            in.Name,
		Description:     in.Description,
		Category:        strings.TrimSpace(in.Category),
		Unit:            in.Unit,
		MinimumQuantity: in.MinimumQuantity,
		Location:        in.Location,
		SupplierID:      in.SupplierID,
		Active:          true,
		CurrentQuantity: decimal.Zero,
		AverageCost:     decimal.Zero,
		SalePrice:       decimal.Zero,
		Status:          ledger.Status(decimal.Zero, in.MinimumQuantity, false),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	out := inventory.ToProductResponse(product)
	return &out, nil
}

// GetByID obtiene un producto por ID con su agregado.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	out := inventory.ToProductResponse(product)
	return &out, nil
}

// List lista productos con filtros; sin filtro de activo devuelve solo activos.
func (uc *ProductUseCase) List(ctx context.Context, req dto.ProductListRequest) (*dto.ProductListResponse, error) {
	req.DefaultPage()
	list, err := uc.repo.List(ctx, repository.ProductFilter{
		Search:     strings.TrimSpace(req.Search),
		Category:   strings.TrimSpace(req.Category),
		SupplierID: req.SupplierID,
		LowStock:   req.LowStock,
		Active:     req.Active,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, inventory.ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: req.Limit, Offset: req.Offset},
	}, nil
}

// Update actualiza datos maestros. Un cambio de stock mínimo recalcula el estado en la misma transacción.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.NewValidationError("name", "el nombre es obligatorio")
	}
	if in.Unit != nil && !entity.ValidUnit(strings.ToUpper(*in.Unit)) {
		return nil, domain.NewValidationError("unit", "unidad de medida no admitida")
	}
	if in.MinimumQuantity != nil && in.MinimumQuantity.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("minimum_quantity", "el stock mínimo no puede ser negativo")
	}
	return uc.mutate(ctx, id, func(p *entity.Product) {
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Category != nil {
			p.Category = strings.TrimSpace(*in.Category)
		}
		if in.Unit != nil {
			p.Unit = strings.ToUpper(*in.Unit)
		}
		if in.MinimumQuantity != nil {
			p.MinimumQuantity = *in.MinimumQuantity
		}
		if in.Location != nil {
			p.Location = *in.Location
		}
		if in.SupplierID != nil {
			p.SupplierID = in.SupplierID
		}
	})
}

// SetDiscontinued marca o desmarca DESCONTINUADO; al desmarcar el estado se recalcula en el acto.
func (uc *ProductUseCase) SetDiscontinued(ctx context.Context, id int64, discontinued bool) (*dto.ProductResponse, error) {
	return uc.mutate(ctx, id, func(p *entity.Product) {
		p.Discontinued = discontinued
	})
}

// Deactivate da de baja el producto (soft delete). Sus lotes y movimientos se conservan.
func (uc *ProductUseCase) Deactivate(ctx context.Context, id int64) error {
	_, err := uc.mutate(ctx, id, func(p *entity.Product) {
		p.Active = false
	})
	return err
}

func (uc *ProductUseCase) mutate(ctx context.Context, id int64, change func(p *entity.Product)) (*dto.ProductResponse, error) {
	var updated *entity.Product
	err := uc.serializer.Do(ctx, id, func(
		movRepo repository.MovementRepository,
		batchRepo repository.BatchRepository,
		productRepo repository.ProductRepository,
	) error {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		change(p)
		now := uc.now()
		p.UpdatedAt = now
		if err := productRepo.Update(ctx, p); err != nil {
			return err
		}
		if err := inventory.RecomputeProduct(ctx, productRepo, batchRepo, movRepo, p, now); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := inventory.ToProductResponse(updated)
	return &out, nil
}
