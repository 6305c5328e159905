package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-stock-engine/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Reconcile *inventory.ReconcileUseCase
	UndoBatch *inventory.UndoBatchUseCase
	Forecast  *inventory.ForecastUseCase
	Risk      *inventory.RiskReportUseCase
	RiskPDF   *inventory.RiskPDFUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	RegisterEngineRoutes(app, NewEngineHandler(deps.Reconcile, deps.UndoBatch, deps.Forecast, deps.Risk, deps.RiskPDF), deps.JWTSecret)
}

// RegisterEngineRoutes monta /api/engine con JWT y control de roles.
func RegisterEngineRoutes(app *fiber.App, h *EngineHandler, jwtSecret string) {
	engine := app.Group("/api/engine", AuthMiddleware(jwtSecret))

	// Disparadores (importador y bodega)
	engine.Post("/reconcile", RequireRole(RoleAdmin, RoleBodeguero), h.Reconcile)
	engine.Post("/batches/:batch_id/undo", RequireRole(RoleAdmin), h.UndoBatch)
	engine.Post("/forecasts", RequireRole(RoleAdmin, RoleBodeguero), h.Forecast)

	// Consultas (cualquier rol autenticado)
	engine.Get("/products/:id/forecasts", h.ProductForecasts)
	engine.Get("/risks", h.Risks)
	engine.Get("/risks/alerts", h.RiskAlerts)
	engine.Get("/risks/report.pdf", h.RiskReportPDF)
}
