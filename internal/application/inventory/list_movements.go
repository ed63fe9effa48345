package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ListMovementsUseCase consulta del ledger (solo lectura).
type ListMovementsUseCase struct {
	movRepo repository.StockMovementRepository
}

// NewListMovementsUseCase construye el caso de uso.
func NewListMovementsUseCase(movRepo repository.StockMovementRepository) *ListMovementsUseCase {
	return &ListMovementsUseCase{movRepo: movRepo}
}

// List filtra por producto, actor, tipo y rango de fechas; más recientes primero, con total.
// Un To sin hora (YYYY-MM-DD) incluye el día completo.
func (uc *ListMovementsUseCase) List(ctx context.Context, actor entity.Actor, in dto.MovementListRequest) (*dto.MovementListResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	in.DefaultPage()
	filter := repository.MovementFilter{
		ProductID: in.ProductID,
		ActorID:   in.UserID,
		Kind:      in.Type,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	verr := &domain.ValidationError{}
	if in.Type != "" && !entity.IsValidMovementKind(in.Type) {
		verr.Add("type", "debe ser in, out o adjustment")
	}
	if in.From != "" {
		from, _, err := parseDate(in.From)
		if err != nil {
			verr.Add("from", "fecha inválida (RFC3339 o YYYY-MM-DD)")
		} else {
			filter.From = &from
		}
	}
	if in.To != "" {
		to, dateOnly, err := parseDate(in.To)
		if err != nil {
			verr.Add("to", "fecha inválida (RFC3339 o YYYY-MM-DD)")
		} else {
			if dateOnly {
				to = to.Add(24*time.Hour - time.Nanosecond)
			}
			filter.To = &to
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		verr.Add("to", "debe ser posterior a from")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	list, total, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: dto.NewMovementResponses(list),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	return t, true, err
}
