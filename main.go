// @title           Licitaciones API
// @version         1.0
// @description     Tender management backend - budgets, deliveries, analytics and reference prices.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"backend/handlers"
	"backend/repository"
	"backend/services"
	"backend/storage"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var cronRunning int32

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, extra)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// safeGo runs a named cron job in its own goroutine with panic recovery
func safeGo(ctx context.Context, wg *sync.WaitGroup, name string, job func(ctx context.Context) error, cronLogger *log.Logger) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Recovered from panic in %s: %v", name, r)
				if cronLogger != nil {
					cronLogger.Printf("Recovered from panic in %s: %v", name, r)
				}
			}
		}()

		if err := job(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		}
	}()
}

func main() {
	db := storage.InitDB()
	gormDB := storage.InitGormDB()

	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := storage.AutoMigrate(gormDB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := repository.SeedEstados(gormDB); err != nil {
		log.Fatalf("Failed to seed estados: %v", err)
	}

	// Dev auth bypass is wired once at startup; handlers never read the
	// environment themselves.
	handlers.ConfigureAuth(os.Getenv("DEV_BYPASS_AUTH") == "true")
	if os.Getenv("DEV_BYPASS_AUTH") == "true" {
		log.Println("WARNING: DEV_BYPASS_AUTH is enabled, session validation is disabled")
	}

	emailService := services.NewEmailService(db)

	// Daily maintenance at 07:30
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 7 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "DeadlineReminders", func(ctx context.Context) error {
			return emailService.SendDeadlineReminders(7)
		}, cronLogger)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			if cronLogger != nil {
				cronLogger.Println("Cron timeout reached, jobs cancelled")
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	c.Start()
	defer c.Stop()

	r := gin.Default()
	r.Use(cors.New(CORSConfig()))

	// ==================== AUTH ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/logout-device", handlers.LogoutDeviceHandler(db))
	r.POST("/api/refresh-token", handlers.RefreshTokenHandler(db))
	r.POST("/api/validate-session", handlers.ValidateSession(db))
	r.GET("/api/me", handlers.MeHandler(db))

	// ==================== TENDERS ====================
	r.GET("/tenders", handlers.GetTendersHandler(db))
	r.POST("/tenders", handlers.CreateTenderHandler(db))
	r.GET("/tenders/:id", handlers.GetTenderHandler(db))
	r.PUT("/tenders/:id", handlers.UpdateTenderHandler(db))
	r.DELETE("/tenders/:id", handlers.DeleteTenderHandler(db))
	r.PUT("/tenders/:id/status", handlers.ChangeTenderStatusHandler(db))
	r.GET("/tenders/:id/summary", handlers.GetTenderSummaryHandler(db))

	// ==================== PARTIDAS ====================
	r.GET("/tenders/:id/partidas", handlers.GetPartidasHandler(db))
	r.POST("/tenders/:id/partidas", handlers.CreatePartidaHandler(db))
	r.PUT("/tenders/:id/partidas/:detailId", handlers.UpdatePartidaHandler(db))
	r.DELETE("/tenders/:id/partidas/:detailId", handlers.DeletePartidaHandler(db))

	// ==================== IMPORT / EXPORT ====================
	r.POST("/tenders/:id/import/analyze", handlers.AnalyzeImportHandler(db))
	r.POST("/tenders/:id/import/commit", handlers.CommitImportHandler(db))
	r.GET("/tenders/:id/export", handlers.ExportTenderBudgetHandler(db))

	// ==================== PRODUCTS ====================
	r.GET("/productos", handlers.GetProductosHandler(db))
	r.POST("/productos", handlers.CreateProductoHandler(db))
	r.GET("/productos/search", handlers.SearchProductosHandler(db))
	r.GET("/search/products", handlers.SearchProductUsageHandler(db))

	// ==================== ANALYTICS ====================
	r.GET("/analytics/price-deviation-check", handlers.PriceDeviationCheckHandler(db))
	r.GET("/analytics/kpis", handlers.GetKPIsHandler(db))
	r.GET("/analytics/material-trends/:material_name", handlers.GetMaterialTrendsHandler(db))
	r.GET("/analytics/product/:id", handlers.GetProductAnalyticsHandler(db))

	// ==================== DELIVERIES ====================
	r.POST("/deliveries", handlers.CreateDeliveryHandler(db))
	r.GET("/tenders/:id/deliveries", handlers.GetDeliveriesHandler(db))
	r.PUT("/deliveries/lines/:lineId", handlers.UpdateDeliveryLineHandler(db))
	r.DELETE("/deliveries/:deliveryId", handlers.DeleteDeliveryHandler(db))

	// ==================== REFERENCE PRICES ====================
	r.GET("/precios-referencia", handlers.GetPreciosReferenciaHandler(db))
	r.POST("/precios-referencia", handlers.CreatePrecioReferenciaHandler(db))
	r.PUT("/precios-referencia/:id", handlers.UpdatePrecioReferenciaHandler(db))
	r.DELETE("/precios-referencia/:id", handlers.DeletePrecioReferenciaHandler(db))

	// ==================== EXPENSES ====================
	r.POST("/expenses", handlers.CreateExpenseHandler(db))
	r.GET("/expenses", handlers.GetExpensesHandler(db))
	r.PUT("/expenses/:id", handlers.UpdateExpenseHandler(db))
	r.DELETE("/expenses/:id", handlers.DeleteExpenseHandler(db))

	// ==================== CATALOG ====================
	r.GET("/estados", handlers.GetEstadosHandler(db))
	r.GET("/tipos-licitacion", handlers.GetTiposLicitacionHandler(db))

	// ==================== SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}

	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
