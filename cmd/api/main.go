package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	infrakafka "github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	inframetrics "github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/tracing"
)

const version = "1.0.0"

// txRunner transacción compartida por inventario y compras.
type txRunner interface {
	inventory.TxRunner
	purchasing.PurchasingTxRunner
}

// storage repositorios fuera de transacción + el runner transaccional.
type storage struct {
	products   repository.ProductRepository
	movements  repository.StockMovementRepository
	orders     repository.PurchaseOrderRepository
	suppliers  repository.SupplierRepository
	categories repository.CategoryRepository
	tx         txRunner
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Trazas
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.App.Name, version, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar trazas")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				log.Error().Err(err).Msg("cerrar trazas")
			}
		}()
		log.Info().Str("endpoint", cfg.Tracing.JaegerEndpoint).Msg("trazas exportadas a Jaeger")
	}

	// Persistencia
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer store.close()

	// Bloqueos por producto / orden
	var locker inventory.Locker = lock.NewMemoryLocker(cfg.Lock.WaitTimeout)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Lock.WaitTimeout, cfg.Lock.TTL, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("bloqueos distribuidos en Redis")
	}

	// Eventos de dominio
	var events inventory.EventPublisher = inventory.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := infrakafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Kafka")
		}
		defer pub.Close()
		events = pub
	}

	// Métricas
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := inframetrics.NewPrometheus(registry)

	writer := inventory.NewLedgerWriter()
	productUC := inventory.NewProductUseCase(
		store.products, store.movements, store.categories, store.orders, store.tx, writer, locker, metrics, events, log,
	)
	adjustUC := inventory.NewAdjustStockUseCase(store.tx, writer, locker, metrics, events, log)
	listMovementsUC := inventory.NewListMovementsUseCase(store.movements)

	createOrderUC := purchasing.NewCreateOrderUseCase(store.tx, store.suppliers, store.products, log)
	transitionUC := purchasing.NewTransitionOrderUseCase(store.tx, store.suppliers, locker, metrics, events, log)
	receiveUC := purchasing.NewReceiveOrderUseCase(store.tx, store.orders, writer, locker, metrics, events, log)
	queryUC := purchasing.NewQueryUseCase(store.orders)

	// PDF: documento de la orden de compra para el proveedor
	orderPDFUC := purchasing.NewPDFUseCase(store.orders, store.suppliers, store.products, infrapdf.NewMarotoPDFGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(httpRouter.RequestLogger(log, metrics))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:       productUC,
		AdjustStock:     adjustUC,
		ListMovements:   listMovementsUC,
		CreateOrder:     createOrderUC,
		TransitionOrder: transitionUC,
		ReceiveOrder:    receiveUC,
		QueryOrders:     queryUC,
		OrderPDF:        orderPDFUC,
		JWTSecret:       cfg.JWT.Secret,
	})

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

// openStorage abre PostgreSQL o, con STORAGE_DRIVER=memory, un store en proceso con datos de demo.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == "memory" {
		store := memory.NewStore()
		store.AddSupplier(&entity.Supplier{ID: "3d6f0a52-8a53-4f5e-9a43-5f8d1c2b7e01", Name: "Proveedor demo", CreatedAt: time.Now()})
		store.AddCategory(&entity.Category{ID: "9b1e7c44-2f0d-4c8a-b6f3-1a2d3e4f5a60", Name: "General", CreatedAt: time.Now()})
		log.Warn().Msg("persistencia en memoria: los datos se pierden al reiniciar")
		return &storage{
			products:   store.Products(),
			movements:  store.Movements(),
			orders:     store.PurchaseOrders(),
			suppliers:  store.Suppliers(),
			categories: store.Categories(),
			tx:         store,
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	return &storage{
		products:   postgres.NewProductRepository(pool),
		movements:  postgres.NewMovementRepository(pool),
		orders:     postgres.NewPurchaseOrderRepository(pool),
		suppliers:  postgres.NewSupplierRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		tx:         postgres.NewTxRunner(pool, cfg.Lock.WaitTimeout),
		close:      pool.Close,
	}, nil
}
