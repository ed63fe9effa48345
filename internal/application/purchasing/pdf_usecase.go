package purchasing

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// PDFUseCase genera el documento PDF de una orden de compra para enviar al proveedor.
type PDFUseCase struct {
	orderRepo    repository.PurchaseOrderRepository
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	generator    OrderPDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	orderRepo repository.PurchaseOrderRepository,
	supplierRepo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	generator OrderPDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		orderRepo:    orderRepo,
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		generator:    generator,
	}
}

// DownloadOrderPDF carga la orden, su proveedor y los productos de cada línea y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - domain.ErrNotFound        si la orden no existe.
func (uc *PDFUseCase) DownloadOrderPDF(ctx context.Context, actor entity.Actor, orderID string) (pdfBytes []byte, filename string, err error) {
	if !actor.IsValid() {
		return nil, "", domain.ErrUnauthorized
	}
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener orden: %w", err)
	}
	if order == nil {
		return nil, "", domain.ErrNotFound
	}

	supplier, err := uc.supplierRepo.GetByID(ctx, order.SupplierID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener proveedor: %w", err)
	}
	if supplier == nil {
		supplier = &entity.Supplier{ID: order.SupplierID, Name: "Proveedor " + order.SupplierID}
	}

	lines := make([]OrderLineForPDF, 0, len(order.Items))
	for _, it := range order.Items {
		line := OrderLineForPDF{PurchaseOrderItem: *it, ProductName: "Producto " + it.ProductID}
		product, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, "", fmt.Errorf("pdf: obtener producto %s: %w", it.ProductID, err)
		}
		if product != nil {
			line.SKU = product.SKU
			line.ProductName = product.Name
		}
		lines = append(lines, line)
	}

	pdfBytes, err = uc.generator.GenerateOrderPDF(ctx, order, supplier, lines)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("orden_%s.pdf", order.OrderNumber), nil
}
