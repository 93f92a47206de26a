// Package lock implementa inventory.ProductLocker: en proceso (KeyedMutex) y distribuido (RedisLocker).
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jhoicas/autocare-estoque/internal/domain"
)

// KeyedMutex un mutex por producto. Las entradas se liberan cuando nadie las espera.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

// NewKeyedMutex crea el locker en proceso.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedEntry)}
}

// Lock espera el turno del producto hasta que ctx venza.
// Vencido el plazo devuelve domain.ErrConcurrencyConflict; cancelado, ctx.Err().
func (k *KeyedMutex) Lock(ctx context.Context, productID int64) (func(), error) {
	// Con ctx ya vencido el select podría elegir el semáforo libre.
	if ctx.Err() != nil {
		return nil, lockError(ctx, productID)
	}
	k.mu.Lock()
	e, ok := k.locks[productID]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.locks[productID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				k.release(productID, e)
			})
		}, nil
	case <-ctx.Done():
		k.release(productID, e)
		return nil, lockError(ctx, productID)
	}
}

// Len cantidad de productos con lock tomado o en espera.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyedMutex) release(productID int64, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, productID)
	}
}

func lockError(ctx context.Context, productID int64) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: lock del producto %d no obtenido a tiempo", domain.ErrConcurrencyConflict, productID)
	}
	return ctx.Err()
}
