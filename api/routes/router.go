package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warungdev/lokapos/api/controllers"
	"github.com/warungdev/lokapos/api/middleware"
	backupsvc "github.com/warungdev/lokapos/internal/backup"
	"github.com/warungdev/lokapos/internal/cart"
	"github.com/warungdev/lokapos/internal/catalog"
	checkoutsvc "github.com/warungdev/lokapos/internal/checkout"
	feesvc "github.com/warungdev/lokapos/internal/fees"
	"github.com/warungdev/lokapos/internal/reports"
	"github.com/warungdev/lokapos/internal/sales"
	"github.com/warungdev/lokapos/internal/settings"
	"github.com/warungdev/lokapos/internal/syncer"
	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/logger"
)

// NewRouter mounts the register API. Everything is local first: handlers only
// touch the local store, and sync runs behind /sync.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	registry *prometheus.Registry,
	catalogService catalog.Service,
	feeService feesvc.Service,
	cartSession *cart.Session,
	checkoutService checkoutsvc.Service,
	salesService sales.Service,
	syncService *syncer.Service,
	settingsService *settings.Service,
	backupService *backupsvc.Service,
	reportsService *reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, dbP, logg))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Post("/", controllers.CreateProduct(catalogService, logg))
			r.Get("/barcode", controllers.LookupProductByBarcode(catalogService, logg))
			r.Get("/low-stock", controllers.ListLowStock(catalogService, logg))
			r.Get("/{id}", controllers.GetProduct(catalogService, logg))
			r.Patch("/{id}", controllers.UpdateProduct(catalogService, logg))
			r.Delete("/{id}", controllers.DeleteProduct(catalogService, logg))
			r.Post("/{id}/stock", controllers.AdjustStock(catalogService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(catalogService, logg))
			r.Post("/", controllers.CreateCategory(catalogService, logg))
			r.Patch("/{id}", controllers.RenameCategory(catalogService, logg))
			r.Delete("/{id}", controllers.DeleteCategory(catalogService, logg))
		})

		r.Route("/fees", func(r chi.Router) {
			r.Get("/", controllers.ListFees(feeService, logg))
			r.Post("/", controllers.CreateFee(feeService, logg))
			r.Put("/{id}", controllers.UpdateFee(feeService, logg))
			r.Delete("/{id}", controllers.DeleteFee(feeService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartSession, logg))
			r.Delete("/", controllers.ClearCart(cartSession, logg))
			r.Post("/items", controllers.AddCartItem(cartSession, logg))
			r.Put("/items/{productId}", controllers.ChangeCartQuantity(cartSession, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(cartSession, logg))
			r.Post("/fees/{feeId}", controllers.ApplyCartFee(cartSession, logg))
			r.Delete("/fees/{feeId}", controllers.RemoveCartFee(cartSession, logg))
			r.Post("/fees/reconcile", controllers.ReconcileCartFees(cartSession, logg))
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, cartSession, logg))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.ListTransactions(salesService, logg))
			r.Get("/{id}", controllers.GetTransaction(salesService, logg))
			r.Delete("/{id}", controllers.DeleteTransaction(salesService, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", controllers.TriggerSync(syncService, logg))
			r.Get("/status", controllers.SyncStatus(syncService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.GetSetting(settingsService, logg))
			r.Put("/", controllers.SetSetting(settingsService, logg))
			r.Get("/profile", controllers.GetStoreProfile(settingsService, logg))
			r.Put("/profile", controllers.SetStoreProfile(settingsService, logg))
			r.Get("/low-stock-threshold", controllers.GetLowStockThreshold(settingsService, logg))
			r.Put("/low-stock-threshold", controllers.SetLowStockThreshold(settingsService, logg))
			r.Put("/kiosk-pin", controllers.SetKioskPIN(settingsService, logg))
			r.Post("/kiosk-pin/verify", controllers.VerifyKioskPIN(settingsService, logg))
		})

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", controllers.ListBackups(backupService, logg))
			r.Post("/", controllers.RunBackup(backupService, logg))
			r.Get("/export", controllers.ExportBackup(backupService, logg))
			r.Post("/import", controllers.ImportBackup(backupService, logg))
		})

		r.Get("/reports/sales.csv", controllers.SalesReportCSV(reportsService, logg))
	})

	return r
}
