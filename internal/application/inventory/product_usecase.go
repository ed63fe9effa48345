package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ProductUseCase casos de uso del catálogo. La cantidad solo cambia a través del ledger:
// el alta escribe el movimiento inicial y la baja uno que lleva el stock a cero.
type ProductUseCase struct {
	repo         repository.ProductRepository
	movRepo      repository.StockMovementRepository
	categoryRepo repository.CategoryRepository
	openOrders   OpenOrderChecker
	txRunner     TxRunner
	writer       MovementWriter
	locker       Locker
	metrics      Metrics
	events       EventPublisher
	log          *logger.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	categoryRepo repository.CategoryRepository,
	openOrders OpenOrderChecker,
	txRunner TxRunner,
	writer MovementWriter,
	locker Locker,
	metrics Metrics,
	events EventPublisher,
	log *logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		repo:         repo,
		movRepo:      movRepo,
		categoryRepo: categoryRepo,
		openOrders:   openOrders,
		txRunner:     txRunner,
		writer:       writer,
		locker:       locker,
		metrics:      metrics,
		events:       events,
		log:          log,
	}
}

// Create da de alta un producto. Si trae cantidad inicial se registra como entrada "Initial stock"
// en la misma transacción, de modo que la cantidad siempre coincide con el ledger.
func (uc *ProductUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	sku := inventory.NormalizeSKU(in.SKU)
	verr := &domain.ValidationError{}
	if sku == "" {
		verr.Add("sku", "es obligatorio")
	}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "es obligatorio")
	}
	if in.Quantity < 0 {
		verr.Add("quantity", "no puede ser negativa")
	}
	if in.MinStockLevel < 0 {
		verr.Add("min_stock_level", "no puede ser negativo")
	}
	if in.UnitPrice.LessThan(decimal.Zero) {
		verr.Add("unit_price", "no puede ser negativo")
	} else if !entity.HasMoneyScale(in.UnitPrice) {
		verr.Add("unit_price", "admite como máximo 2 decimales")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := uc.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		SKU:           sku,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		MinStockLevel: in.MinStockLevel,
		UnitPrice:     in.UnitPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if in.Quantity == 0 {
			return nil
		}
		var err error
		mov, err = uc.writer.Apply(ctx, movRepo, productRepo, ApplyInput{
			ProductID: product.ID,
			Delta:     in.Quantity,
			Kind:      entity.MovementKindIn,
			ActorID:   actor.UserID,
			Reason:    entity.ReasonInitialStock,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if mov != nil {
		product.Quantity = mov.NewQuantity
		uc.metrics.MovementRecorded(mov.Kind)
		publishMovement(ctx, uc.events, uc.log, mov, product)
	}
	uc.log.Info().Str("product_id", product.ID).Str("sku", product.SKU).Int64("quantity", product.Quantity).Msg("producto creado")
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// GetByID obtiene un producto (incluye los archivados, para consultar su historial).
func (uc *ProductUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.ProductResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// List lista productos activos con búsqueda, categoría y filtro de stock bajo.
func (uc *ProductUseCase) List(ctx context.Context, actor entity.Actor, in dto.ProductListRequest) (*dto.ProductListResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	in.DefaultPage()
	list, total, err := uc.repo.List(ctx, repository.ProductFilter{
		Search:       strings.TrimSpace(in.Search),
		CategoryID:   in.CategoryID,
		LowStockOnly: in.LowStock,
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.NewProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Update actualiza atributos descriptivos. No permite modificar la cantidad (se maneja vía ajustes).
func (uc *ProductUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.IsArchived() {
		return nil, domain.ErrNotFound
	}
	verr := &domain.ValidationError{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			verr.Add("name", "no puede quedar vacío")
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.MinStockLevel != nil {
		if *in.MinStockLevel < 0 {
			verr.Add("min_stock_level", "no puede ser negativo")
		}
		product.MinStockLevel = *in.MinStockLevel
	}
	if in.UnitPrice != nil {
		if in.UnitPrice.LessThan(decimal.Zero) {
			verr.Add("unit_price", "no puede ser negativo")
		} else if !entity.HasMoneyScale(*in.UnitPrice) {
			verr.Add("unit_price", "admite como máximo 2 decimales")
		}
		product.UnitPrice = *in.UnitPrice
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := uc.checkCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// Dispose da de baja un producto: si aún tiene stock escribe un movimiento "Disposal" que lo
// lleva a cero y luego lo archiva. El ledger conserva la referencia al producto.
// Se rechaza con *domain.ProductInUseError mientras una orden abierta espere unidades del producto.
func (uc *ProductUseCase) Dispose(ctx context.Context, actor entity.Actor, id string) error {
	if !actor.IsValid() {
		return domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	release, err := uc.locker.Acquire(ctx, ProductLockKey(id))
	if err != nil {
		return err
	}
	defer release()

	// Bajo el bloqueo del producto: una recepción en curso no puede intercalarse
	open, err := uc.openOrders.OpenOrdersForProduct(ctx, id)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return &domain.ProductInUseError{ProductID: id, OrderNumbers: open}
	}

	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || p.IsArchived() {
			return domain.ErrNotFound
		}
		if p.Quantity > 0 {
			mov, err = uc.writer.Apply(ctx, movRepo, productRepo, ApplyInput{
				ProductID: p.ID,
				Delta:     -p.Quantity,
				Kind:      entity.MovementKindAdjustment,
				ActorID:   actor.UserID,
				Reason:    entity.ReasonDisposal,
			})
			if err != nil {
				return err
			}
		}
		return productRepo.Archive(ctx, p.ID, time.Now())
	})
	if err != nil {
		return err
	}
	if mov != nil {
		uc.metrics.MovementRecorded(mov.Kind)
		if err := uc.events.MovementRecorded(ctx, mov); err != nil {
			uc.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("no se pudo publicar el evento de movimiento")
		}
	}
	uc.log.Info().Str("product_id", id).Str("user_id", actor.UserID).Msg("producto dado de baja")
	return nil
}

// VerifyLedger reconstruye la cantidad del producto desde su ledger y la compara con la almacenada.
func (uc *ProductUseCase) VerifyLedger(ctx context.Context, actor entity.Actor, id string) (*dto.LedgerVerificationResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	movements, err := uc.movRepo.ListByProductInOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	res := inventory.Replay(movements, product.Quantity)
	if !res.Consistent {
		uc.log.Error().Str("product_id", id).Str("problem", res.Problem).Msg("ledger inconsistente")
	}
	return &dto.LedgerVerificationResponse{
		ProductID:     id,
		Movements:     res.Movements,
		DerivedQty:    res.Derived,
		StoredQty:     res.Stored,
		Consistent:    res.Consistent,
		Inconsistency: res.Problem,
	}, nil
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	cat, err := uc.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		return domain.NewValidationError("category_id", "la categoría no existe")
	}
	return nil
}
