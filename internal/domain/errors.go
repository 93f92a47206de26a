package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrInvalidMovement agrupa los rechazos de validación de un movimiento (ver ValidationError).
	ErrInvalidMovement = errors.New("movimiento inválido")
	// ErrInsufficientBatchBalance indica que se intentó descontar más de lo que queda en un lote.
	// Si aparece, el chequeo de factibilidad FIFO está roto.
	ErrInsufficientBatchBalance = errors.New("saldo de lote insuficiente")
	// ErrConcurrencyConflict es transitorio: lock no obtenido a tiempo o conflicto de serialización.
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente")
	ErrProductInactive     = errors.New("producto inactivo")
	ErrUndefinedMargin     = errors.New("margen indefinido para costo menor o igual a cero")
)

// ValidationError describe el campo que hizo fallar la validación de un movimiento o producto.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidMovement }

// InsufficientStockError lleva las cantidades para que el cliente pueda mostrar "solo hay N".
type InsufficientStockError struct {
	ProductID int64
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %s, solicitado %s", e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
