package main

import (
	"net/http"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/internal/handlers"
	"github.com/davrd/invoicery/internal/realtime"
	"github.com/davrd/invoicery/internal/services"
	"github.com/davrd/invoicery/internal/storage"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux   *http.ServeMux
	db    *gorm.DB
	hub   *realtime.Hub
	store *storage.Store
}

// NewApp wires services into handlers and configures the route table.
func NewApp(db *gorm.DB, hub *realtime.Hub, store *storage.Store) *App {
	app := &App{
		mux:   http.NewServeMux(),
		db:    db,
		hub:   hub,
		store: store,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth.Middleware(a.mux).ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	invoiceSvc := services.NewInvoiceService(a.db)
	notificationSvc := services.NewNotificationService(a.db, a.hub)
	dashboardSvc := services.NewDashboardService(a.db)
	reportSvc := services.NewReportService(a.db)

	ah := handlers.NewAuthHandler(a.db)
	ch := handlers.NewCompanyHandler(a.db)
	ph := handlers.NewProductHandler(a.db)
	ih := handlers.NewInvoiceHandler(a.db, invoiceSvc)
	sh := handlers.NewSchemaHandler(a.db)
	uh := handlers.NewSettingsHandler(a.db)
	th := handlers.NewTeamHandler(a.db)
	nh := handlers.NewNotificationHandler(notificationSvc)
	dh := handlers.NewDashboardHandler(dashboardSvc)
	rh := handlers.NewReportHandler(reportSvc)
	fh := handlers.NewFileHandler(a.db, a.store)

	// Public routes (no auth required)
	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /healthz", a.health)

	// Authenticated routes
	protect := func(pattern string, h http.HandlerFunc) {
		a.mux.Handle(pattern, auth.RequireAuth(h))
	}

	protect("GET /me", ah.Me)

	protect("GET /companies", ch.List)
	protect("POST /companies", ch.Create)
	protect("GET /companies/{id}", ch.Get)
	protect("PUT /companies/{id}", ch.Update)
	protect("DELETE /companies/{id}", ch.Delete)

	protect("GET /products", ph.List)
	protect("POST /products", ph.Create)
	protect("GET /products/{id}", ph.Get)
	protect("PUT /products/{id}", ph.Update)
	protect("DELETE /products/{id}", ph.Delete)
	protect("POST /products/{id}/sub-products", ph.CreateSub)
	protect("PUT /sub-products/{id}", ph.UpdateSub)
	protect("DELETE /sub-products/{id}", ph.DeleteSub)

	protect("GET /invoices", ih.List)
	protect("POST /invoices", ih.Create)
	protect("GET /invoices/{id}", ih.Get)
	protect("PUT /invoices/{id}", ih.Update)
	protect("DELETE /invoices/{id}", ih.Delete)
	protect("PUT /invoices/{id}/status", ih.UpdateStatus)
	protect("POST /invoices/{id}/file", fh.Attach)
	protect("DELETE /invoices/{id}/file", fh.Detach)

	protect("GET /schemas", sh.List)
	protect("POST /schemas", sh.Create)
	protect("GET /schemas/{id}", sh.Get)
	protect("PUT /schemas/{id}", sh.Update)
	protect("DELETE /schemas/{id}", sh.Delete)

	protect("GET /settings", uh.Get)
	protect("PUT /settings", uh.Update)

	protect("GET /team", th.Mine)
	protect("POST /teams", th.Create)
	protect("DELETE /teams/{id}", th.Delete)
	protect("POST /teams/{id}/members", th.AddMember)
	protect("DELETE /teams/{id}/members/{profileID}", th.RemoveMember)
	protect("GET /profiles/search", th.SearchProfiles)

	protect("GET /notifications", nh.List)
	protect("PUT /notifications/{id}/read", nh.MarkRead)
	protect("PUT /notifications/read-all", nh.MarkAllRead)
	protect("POST /notifications/sweep", nh.Sweep)

	protect("GET /dashboard", dh.Stats)
	protect("GET /reports", rh.Get)
	protect("GET /reports/export", rh.ExportCSV)

	protect("GET /files/{key...}", fh.Download)
	protect("GET /ws", a.serveWS)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (a *App) serveWS(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	a.hub.ServeWS(w, r, userID)
}
