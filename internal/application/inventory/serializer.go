package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/pkg/logger"
)

// Options parámetros de concurrencia del registro de movimientos.
type Options struct {
	LockTimeout  time.Duration // espera máxima por el lock del producto
	MaxRetries   int           // reintentos ante domain.ErrConcurrencyConflict
	RetryBackoff time.Duration // espera base, crece linealmente por intento
}

// Serializer ejecuta trabajo transaccional sobre un producto: lock por producto,
// transacción y reintentos acotados ante conflictos. Productos distintos no comparten lock.
type Serializer struct {
	txRunner TxRunner
	locker   ProductLocker
	observer MovementObserver
	log      *logger.Logger
	opts     Options
}

// NewSerializer construye el Serializer. observer puede ser nil.
func NewSerializer(txRunner TxRunner, locker ProductLocker, observer MovementObserver, log *logger.Logger, opts Options) *Serializer {
	if observer == nil {
		observer = NopObserver()
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Serializer{txRunner: txRunner, locker: locker, observer: observer, log: log, opts: opts}
}

// Do adquiere el lock de productID, ejecuta fn en una transacción y libera el lock al terminar.
// Solo domain.ErrConcurrencyConflict se reintenta; cualquier otro error se devuelve tal cual.
func (s *Serializer) Do(ctx context.Context, productID int64, fn TxFunc) error {
	for attempt := 0; ; attempt++ {
		err := s.once(ctx, productID, fn)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) || attempt >= s.opts.MaxRetries {
			return err
		}
		s.observer.Retried("concurrency_conflict")
		s.log.Warn().
			Int64("product_id", productID).
			Int("attempt", attempt+1).
			Err(err).
			Msg("conflicto de concurrencia, reintentando")

		timer := time.NewTimer(s.opts.RetryBackoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (s *Serializer) once(ctx context.Context, productID int64, fn TxFunc) error {
	lockCtx := ctx
	if s.opts.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.opts.LockTimeout)
		defer cancel()
	}
	started := time.Now()
	unlock, err := s.locker.Lock(lockCtx, productID)
	if err != nil {
		return err
	}
	defer unlock()
	s.observer.LockAcquired(time.Since(started))

	return s.txRunner.Run(ctx, fn)
}
