package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/cache"
	"github.com/linemk/luxe-market/internal/config"
	"github.com/linemk/luxe-market/internal/events"
	"github.com/linemk/luxe-market/internal/service"
	"github.com/linemk/luxe-market/internal/storage"
)

const pingTimeout = 5 * time.Second

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sql.DB
	Redis     *redis.Client
	Publisher events.OrderPublisher

	amqpConn *amqp.Connection
}

// Services - сервисы приложения, собранные поверх одного подключения к БД
type Services struct {
	Auth     service.AuthServiceInterface
	Catalog  service.CatalogService
	Cart     service.CartService
	Coupon   service.CouponService
	Checkout service.CheckoutService
	Order    service.OrderService
	Wallet   service.WalletService
	Info     service.InfoService
}

// NewApp создаёт новый экземпляр App: PostgreSQL, Redis и, если задан URL, RabbitMQ
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	// реализуем подключение к БД через DSN
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Redis:     rdb,
		Publisher: events.NopPublisher{},
	}

	// без брокера заказы оформляются, события просто не уходят
	if cfg.RabbitMQ.URL == "" {
		log.Warn("rabbitmq url is empty, order events are disabled")
		return app, nil
	}
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	publisher, err := events.NewPublisher(conn)
	if err != nil {
		conn.Close()
		app.Close()
		return nil, fmt.Errorf("failed to init publisher: %w", err)
	}
	app.amqpConn = conn
	app.Publisher = publisher

	return app, nil
}

// Services собирает репозитории и сервисы
func (a *App) Services() *Services {
	userRepo := storage.NewUserRepository(a.DB)
	catalogRepo := storage.NewCatalogRepository(a.DB)
	couponRepo := storage.NewCouponRepository(a.DB)
	cartRepo := storage.NewCartRepository(a.DB)
	orderRepo := storage.NewOrderRepository(a.DB)
	walletTxRepo := storage.NewWalletTransactionRepository(a.DB)

	cartCache := cache.NewRedisCache(a.Redis, a.Config.Redis.CartTTL)
	taxRate := decimal.NewFromFloat(a.Config.Pricing.TaxRate)

	return &Services{
		Auth:    service.NewAuthService(a.Logger, userRepo, time.Duration(a.Config.JWT.TokenTTL)*time.Minute),
		Catalog: service.NewCatalogService(a.Logger, catalogRepo, cartCache),
		Cart:    service.NewCartService(a.Logger, cartRepo, catalogRepo, couponRepo, cartCache, taxRate),
		Coupon:  service.NewCouponService(a.Logger, couponRepo),
		Checkout: service.NewCheckoutService(
			a.Logger, a.DB, userRepo, cartRepo, couponRepo, orderRepo, walletTxRepo, cartCache, a.Publisher, taxRate,
		),
		Order:  service.NewOrderService(a.Logger, orderRepo, catalogRepo, a.Publisher),
		Wallet: service.NewWalletService(a.Logger, a.DB, userRepo, walletTxRepo),
		Info:   service.NewInfoService(a.Logger, userRepo, orderRepo, walletTxRepo),
	}
}

// Close освобождает подключения в обратном порядке
func (a *App) Close() {
	if p, ok := a.Publisher.(*events.Publisher); ok {
		if err := p.Close(); err != nil {
			a.Logger.Error("failed to close publisher", slog.Any("error", err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.Logger.Error("failed to close rabbitmq connection", slog.Any("error", err))
		}
	}
	if err := a.Redis.Close(); err != nil {
		a.Logger.Error("failed to close redis", slog.Any("error", err))
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
