package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
	"github.com/jhoicas/autocare-estoque/internal/application/usecase"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/lock"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/memory"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/autocare-estoque/internal/infrastructure/pdf"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/autocare-estoque/internal/interfaces/http"
	"github.com/jhoicas/autocare-estoque/pkg/config"
	"github.com/jhoicas/autocare-estoque/pkg/logger"
)

// storage agrupa los adaptadores de persistencia elegidos por STORAGE_DRIVER.
type storage struct {
	products  repository.ProductRepository
	batches   repository.BatchRepository
	movements repository.MovementRepository
	txRunner  inventory.TxRunner
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("lock", cfg.Storage.LockDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	locker, closeLocker, err := openLocker(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar lock de productos")
	}
	defer closeLocker()

	ledgerMetrics := metrics.New("autocare")
	serializer := inventory.NewSerializer(store.txRunner, locker, ledgerMetrics, log, inventory.Options{
		LockTimeout:  cfg.Ledger.LockTimeout,
		MaxRetries:   cfg.Ledger.MaxRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
	})

	loc := cfg.App.Location()
	registerMovementUC := inventory.NewRegisterMovementUseCase(serializer, store.products, ledgerMetrics, log, loc)
	queriesUC := inventory.NewQueryUseCase(store.products, store.batches, store.movements, infrapdf.NewMarotoBatchReport(loc))
	productUC := usecase.NewProductUseCase(store.products, serializer)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "AutoCare Estoque API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	deps := httpRouter.RouterDeps{
		ProductUC:        productUC,
		RegisterMovement: registerMovementUC,
		Queries:          queriesUC,
		JWTSecret:        cfg.JWT.Secret,
		ServiceName:      cfg.App.Name,
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = ledgerMetrics.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			products:  s.ProductRepository(),
			batches:   s.BatchRepository(),
			movements: s.MovementRepository(),
			txRunner:  memory.NewTxRunner(s),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.RunMigrations(pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &storage{
		products:  postgres.NewProductRepository(pool),
		batches:   postgres.NewBatchRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		txRunner:  postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		close:     pool.Close,
	}, nil
}

func openLocker(ctx context.Context, cfg *config.Config) (inventory.ProductLocker, func(), error) {
	if cfg.Storage.LockDriver != config.LockRedis {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	client, err := lock.NewRedis(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(client, cfg.Redis.KeyPrefix, cfg.Redis.LockTTL), func() { _ = client.Close() }, nil
}
