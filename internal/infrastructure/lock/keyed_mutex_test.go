package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/lock"
)

func TestKeyedMutex_SerializaMismoProducto(t *testing.T) {
	km := lock.NewKeyedMutex()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(context.Background(), 1)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, km.Len(), "las entradas deben liberarse")
}

func TestKeyedMutex_ProductosDistintosNoSeBloquean(t *testing.T) {
	km := lock.NewKeyedMutex()
	unlock1, err := km.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlock1()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlock2, err := km.Lock(ctx, 2)
	require.NoError(t, err)
	unlock2()
}

func TestKeyedMutex_TimeoutEsConflicto(t *testing.T) {
	km := lock.NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), 7)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConcurrencyConflict))
}

func TestKeyedMutex_CancelacionNoEsConflicto(t *testing.T) {
	km := lock.NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), 7)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = km.Lock(ctx, 7)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrConcurrencyConflict))
}

func TestKeyedMutex_UnlockIdempotente(t *testing.T) {
	km := lock.NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), 3)
	require.NoError(t, err)
	unlock()
	unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	unlock2, err := km.Lock(ctx, 3)
	require.NoError(t, err)
	unlock2()
}

func TestKeyedMutex_ContextoVencidoNoObtieneLockLibre(t *testing.T) {
	km := lock.NewKeyedMutex()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	for i := 0; i < 50; i++ {
		unlock, err := km.Lock(ctx, 9)
		require.Error(t, err)
		assert.Nil(t, unlock)
		assert.True(t, errors.Is(err, domain.ErrConcurrencyConflict))
	}
	assert.Equal(t, 0, km.Len())

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err := km.Lock(cancelled, 9)
	assert.ErrorIs(t, err, context.Canceled)
}
