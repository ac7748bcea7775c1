package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/spf13/cobra"

	"github.com/fadhlanhapp/rentlot-backend/config"
	"github.com/fadhlanhapp/rentlot-backend/gateway"
	"github.com/fadhlanhapp/rentlot-backend/handlers"
	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
	"github.com/fadhlanhapp/rentlot-backend/routes"
	"github.com/fadhlanhapp/rentlot-backend/services"
)

func main() {
	root := &cobra.Command{
		Use:   "rentlot",
		Short: "Rent billing and payment reconciliation backend",
	}
	root.AddCommand(serveCmd(), migrateCmd(), sweepOverdueCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoad()
			serve(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoad()
			if err := repository.InitDB(cfg.DB); err != nil {
				log.Fatalf("Failed to initialize database: %v", err)
			}
			defer repository.CloseDB()

			if err := repository.Migrate(repository.GetGormDB()); err != nil {
				log.Fatalf("Failed to migrate database: %v", err)
			}
			slog.Info("[Main] Migration complete")
		},
	}
}

func sweepOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark past-due PENDING payments as OVERDUE",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoad()
			if cfg.DB.Driver == "memory" {
				log.Fatalf("sweep-overdue needs a persistent payment store; memory mode keeps payments in process memory")
			}
			if err := repository.InitDB(cfg.DB); err != nil {
				log.Fatalf("Failed to initialize database: %v", err)
			}
			defer repository.CloseDB()

			payments := services.NewPaymentService(paymentStoreFor(cfg.DB.Driver))
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := payments.SweepOverdue(ctx, models.SystemActor("overdue-sweep"))
			if err != nil {
				log.Fatalf("Failed to sweep overdue payments: %v", err)
			}
			slog.Info("[Main] Overdue sweep complete", "marked", n)
		},
	}
}

// paymentStoreFor picks the payment store for the configured driver.
// InitDB must have run.
func paymentStoreFor(driver string) services.PaymentStore {
	switch driver {
	case "memory":
		slog.Warn("[Main] memory mode: payments are kept in process memory and lost on restart")
		return repository.NewMemoryPaymentRepository()
	case "sqlite":
		return repository.NewGormPaymentRepository(repository.GetGormDB())
	default:
		return repository.NewPaymentRepository(repository.GetDB())
	}
}

func mustLoad() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func serve(cfg *config.Config) {
	// Initialize database
	if err := repository.InitDB(cfg.DB); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repository.CloseDB()

	gormDB := repository.GetGormDB()
	if cfg.DB.Driver != "postgres" {
		if err := repository.Migrate(gormDB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}
	paymentStore := paymentStoreFor(cfg.DB.Driver)
	leaseStore := repository.NewLeaseRepository(gormDB)
	anomalyStore := repository.NewAnomalyRepository(gormDB)

	// Payment gateway accounts
	var accounts []config.PayPalAccount
	if cfg.PayPal.AccountsFile != "" {
		var err error
		accounts, err = config.LoadAccounts(cfg.PayPal.AccountsFile)
		if err != nil {
			log.Fatalf("Failed to load PayPal accounts: %v", err)
		}
	}
	gateways, err := gateway.NewPayPalFromConfig(cfg.PayPal, accounts)
	if err != nil {
		log.Fatalf("Failed to initialize PayPal: %v", err)
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.NATSURL != "" {
		nn, err := services.NewNATSNotifier(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Fatalf("Failed to initialize notifier: %v", err)
		}
		defer nn.Close()
		notifier = nn
	}

	// Initialize services
	paymentService := services.NewPaymentService(paymentStore)
	billingService := services.NewBillingService(leaseStore, paymentService, gateways, notifier, services.BillingOptions{
		Currency:       cfg.Currency,
		GatewayTimeout: cfg.GatewayTimeout,
	})
	webhookService := services.NewWebhookService(paymentStore, anomalyStore)
	auditService := services.NewAuditService(paymentStore, cfg.RecentHistoryLimit)
	leaseService := services.NewLeaseService(leaseStore, paymentStore)
	excelService := services.NewExcelService(paymentService, auditService)

	// Set up Gin router
	router := gin.Default()

	// Add New Relic middleware
	if cfg.NewRelicLicenseKey != "" {
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelicAppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			log.Printf("Warning: Failed to initialize New Relic: %v", err)
		} else {
			router.Use(nrgin.Middleware(app))
		}
	}

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.HeaderActorID, handlers.HeaderActorRole},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Set up routes
	routes.SetupRoutes(router, &routes.Handlers{
		Billing:  handlers.NewBillingHandler(billingService),
		Payments: handlers.NewPaymentHandler(paymentService),
		Leases:   handlers.NewLeaseHandler(leaseService),
		Reports:  handlers.NewReportHandler(auditService),
		Excel:    handlers.NewExcelHandler(excelService),
		Webhooks: handlers.NewWebhookHandler(gateways, webhookService),
	})

	// Start server
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
