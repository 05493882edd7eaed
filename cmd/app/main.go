package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/hirestore/hs-order/config"
	adminapp_order "github.com/hirestore/hs-order/internal/module/adminapp/order"
	"github.com/hirestore/hs-order/internal/module/customerapp/discount"
	"github.com/hirestore/hs-order/internal/module/customerapp/gateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/inventory"
	customerapp_order "github.com/hirestore/hs-order/internal/module/customerapp/order"
	"github.com/hirestore/hs-order/internal/module/customerapp/payment"
	"github.com/hirestore/hs-order/internal/module/customerapp/paymentgateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/product"
	"github.com/hirestore/hs-order/internal/module/customerapp/store"
	"github.com/hirestore/hs-order/internal/pkg/jwt"
	internalMiddleware "github.com/hirestore/hs-order/internal/pkg/middleware"
	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/pkg/applogger"
	"github.com/hirestore/hs-order/pkg/gctasks"
	"github.com/hirestore/hs-order/pkg/kafka"
	"github.com/hirestore/hs-order/pkg/middleware"
	"github.com/hirestore/hs-order/pkg/monitoring"
	"github.com/hirestore/hs-order/pkg/postgresql"
	"github.com/hirestore/hs-order/pkg/pubsub"
	"github.com/hirestore/hs-order/pkg/redis"
	"github.com/hirestore/hs-order/pkg/server"
	"github.com/hirestore/hs-order/pkg/validator"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.GCP.ProjectID,
	)

	mon.Start(ctx)

	validate := validator.Get()

	hc := &http.Client{
		Timeout:   c.Payment.GatewayTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	cloudTask := gctasks.NewGCTasks(logger, c.GCP.ProjectID, c.GCP.TasksLocation, c.GCP.ServiceAccount)

	session := session.NewRedisSessionStore(logger, rc)

	customerSessionMiddleware := internalMiddleware.NewCustomerSessionMiddleware(jsonWebToken, session)
	adminSessionMiddleware := internalMiddleware.NewAdminSessionMiddleware(jsonWebToken, session)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	// admin's app
	adminappOrderRepo := adminapp_order.NewOrderRepository(logger, psqldb)
	adminappOrderUseCase := adminapp_order.NewOrderUseCase(adminapp_order.OrderUseCaseProperty{
		Logger:          logger,
		Timeout:         c.Application.Timeout,
		OrderRepository: adminappOrderRepo,
		Publisher:       publisher,
	})
	adminapp_order.InitHTTPHandler(router, adminSessionMiddleware, validate, adminappOrderUseCase)

	// customer's app
	storeRepo := store.NewStoreRepository(logger, psqldb)
	paymentGatewayRepo := gateway.NewPaymentGatewayRepository(logger, psqldb)
	productRepo := product.NewProductRepository(logger, psqldb)
	inventoryRepo := inventory.NewInventoryRepository(logger, psqldb)
	onlinePaymentRepo := payment.NewOnlinePaymentRepository(logger, psqldb)
	customerappOrderRepo := customerapp_order.NewOrderRepository(logger, psqldb)
	customerappOrderItemRepo := customerapp_order.NewItemRepository(logger, psqldb)

	discountResolver := discount.NewNoDiscountResolver()
	if c.Order.DiscountsEnabled {
		discountResolver = discount.NewRepositoryResolver(discount.NewDiscountRepository(logger, psqldb))
	}

	gatewayRegistry := paymentgateway.NewRegistry(
		paymentgateway.NewPaystack(c.Payment.PaystackURL, logger, hc),
		paymentgateway.NewFlutterwave(c.Payment.FlutterwaveURL, logger, hc),
		paymentgateway.NewMidtrans(c.Payment.MidtransURL, c.Payment.MidtransAPIURL, logger, hc),
	)

	customerappOrderUseCase := customerapp_order.NewOrderUseCase(customerapp_order.OrderUseCaseProperty{
		Logger:                   logger,
		Timeout:                  c.Application.Timeout,
		BaseURL:                  c.Application.HSOrder.BaseURL,
		Production:               c.IsProduction(),
		CallbackURL:              c.Payment.CallbackURL,
		PollDelay:                c.Payment.PollDelay,
		CountryCode:              c.Order.DefaultCountryCode,
		RegionCode:               c.Order.DefaultRegionCode,
		CurrencyCode:             c.Order.DefaultCurrency,
		GatewayCode:              c.Order.DefaultGateway,
		ReferenceRetries:         c.Order.ReferenceRetries,
		StoreRepository:          storeRepo,
		PaymentGatewayRepository: paymentGatewayRepo,
		ProductRepository:        productRepo,
		InventoryRepository:      inventoryRepo,
		DiscountResolver:         discountResolver,
		OrderRepository:          customerappOrderRepo,
		ItemRepository:           customerappOrderItemRepo,
		OnlinePaymentRepository:  onlinePaymentRepo,
		GatewayRegistry:          gatewayRegistry,
		Publisher:                publisher,
		CloudTask:                cloudTask,
	})
	customerapp_order.InitHTTPHandler(router, customerSessionMiddleware, validate, customerappOrderUseCase)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	publisher.Close()
	if cloudTask != nil {
		cloudTask.Close()
	}
	psqldb.Close()
	rc.Close()
	mon.Stop(ctx)
}
