package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// retryAfterSeconds sugerido al cliente cuando un recurso está bloqueado.
const retryAfterSeconds = 1

// writeError traduce un error de dominio a su respuesta HTTP. Único punto de mapeo.
func writeError(c *fiber.Ctx, err error) error {
	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientStockError
		negative     *domain.NegativeStockError
		noValid      *domain.NoValidReceiptsError
		overReceipt  *domain.OverReceiptError
		closed       *domain.OrderClosedError
		transition   *domain.InvalidTransitionError
		state        *domain.OrderStateError
		inUse        *domain.ProductInUseError
		busy         *domain.BusyError
	)

	switch {
	case errors.Is(err, errInvalidBody):
		return badBody(c)
	// Va primero: desenvuelve a los errores de cada línea.
	case errors.As(err, &noValid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "NO_VALID_RECEIPTS", Message: noValid.Error(),
			Details: map[string]any{"rejected": purchasing.NewRejectedLines(noValid.Lines)},
		})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "datos inválidos", Fields: validation.Fields,
		})
	case errors.As(err, &busy):
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "BUSY", Message: busy.Error(),
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: insufficient.Error(),
			Details: map[string]any{
				"product_id": insufficient.ProductID,
				"available":  insufficient.Available,
				"requested":  insufficient.Requested,
			},
		})
	case errors.As(err, &negative):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "NEGATIVE_STOCK", Message: negative.Error(),
			Details: map[string]any{
				"product_id": negative.ProductID,
				"current":    negative.Current,
				"delta":      negative.Delta,
			},
		})
	case errors.As(err, &overReceipt):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "OVER_RECEIPT", Message: overReceipt.Error(),
			Details: map[string]any{
				"item_id":   overReceipt.ItemID,
				"pending":   overReceipt.Pending,
				"requested": overReceipt.Requested,
			},
		})
	case errors.As(err, &closed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "ORDER_CLOSED", Message: closed.Error(),
			Details: map[string]any{"status": closed.Status, "attempted": closed.Attempted},
		})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INVALID_TRANSITION", Message: transition.Error(),
			Details: map[string]any{"from": transition.From, "to": transition.To},
		})
	case errors.As(err, &state):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INVALID_STATE", Message: state.Error(),
			Details: map[string]any{"status": state.Status, "operation": state.Operation},
		})
	case errors.As(err, &inUse):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "PRODUCT_IN_USE", Message: inUse.Error(),
			Details: map[string]any{"product_id": inUse.ProductID, "orders": inUse.OrderNumbers},
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// badBody respuesta para cuerpos o queries que no se pudieron decodificar.
func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
