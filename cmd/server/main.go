package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"martxmart/config"
	"martxmart/internal/api"
	"martxmart/internal/auth"
	"martxmart/internal/broker"
	"martxmart/internal/chat"
	"martxmart/internal/gateway"
	"martxmart/internal/ratelimit"
	"martxmart/internal/redisclient"
	"martxmart/internal/service"
	"martxmart/internal/store"
	"martxmart/internal/util"
	"martxmart/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting marketplace service")

	tp, err := util.InitTracer("martxmart", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	razorpay := gateway.NewRazorpayClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	shiprocket := gateway.NewShiprocketClient(
		cfg.Shiprocket.BaseURL,
		cfg.Shiprocket.Email,
		cfg.Shiprocket.Password,
		cfg.Shiprocket.TokenTTL,
		redisClient,
	)
	chatClient := chat.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	stockReserver := service.NewStockReserver(db, redisClient)
	couponService := service.NewCouponService(db)
	cartService := service.NewCartService(db)
	paymentService := service.NewPaymentService(db, eventPublisher, razorpay, cfg.Razorpay.WebhookSecret)
	orderService := service.NewOrderService(db, stockReserver, eventPublisher, couponService, razorpay, shiprocket,
		service.ShipmentOrigin{
			PickupPin:       cfg.Shiprocket.PickupPin,
			UnitWeightGrams: cfg.Shiprocket.UnitWeightGrams,
		})
	inventoryService := service.NewInventoryService(db, eventPublisher)
	reviewService := service.NewReviewService(db)
	sagaOrchestrator := service.NewSagaOrchestrator(db, stockReserver)

	ctx := context.Background()
	if err := stockReserver.SyncToRedis(ctx); err != nil {
		log.Printf("Failed to sync stock to Redis: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	orderConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	orderWorker := worker.NewOrderWorker(orderConsumer, sagaOrchestrator)
	go func() {
		if err := orderWorker.Start(workerCtx); err != nil {
			log.Printf("Order worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	chatLimiter := ratelimit.NewRedisLimiter(redisClient, cfg.Business.ChatRateLimit, cfg.Business.ChatRateWindow)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	// SetupRoutes installs Recovery and Logger itself, so start from a
	// bare engine to avoid running each middleware twice.
	router := gin.New()
	handler := api.NewHandler(
		db,
		cartService,
		orderService,
		paymentService,
		inventoryService,
		reviewService,
		couponService,
		chatClient,
		chatLimiter,
		shiprocket,
		verifier,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	orderWorker.Stop()

	log.Println("Server exited")
}
