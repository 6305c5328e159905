package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-stock-engine/internal/application/dto"
	"github.com/jhoicas/inventario-stock-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
)

// Contratos mínimos que el handler necesita de los casos de uso.
type reconciler interface {
	RunBatch(ctx context.Context, productIDs []string) (*entity.ReconcileReport, error)
	RunFullCatalog(ctx context.Context) (*entity.ReconcileReport, error)
}

type batchUndoer interface {
	UndoBatch(ctx context.Context, batchID string) (*inventory.UndoBatchResult, error)
}

type forecaster interface {
	ForecastProducts(ctx context.Context, productIDs []string, horizonMonths int) (map[string][]entity.ForecastPoint, error)
	ProductForecasts(ctx context.Context, productID string) ([]entity.ForecastPoint, error)
}

type riskReporter interface {
	BuildReport(ctx context.Context, productIDs []string) (*inventory.RiskReport, error)
	Alerts(report *inventory.RiskReport) inventory.ProcurementAlerts
}

type riskPDFDownloader interface {
	DownloadRiskPDF(ctx context.Context, productIDs []string) ([]byte, string, error)
}

// EngineHandler expone la conciliación, los pronósticos y el riesgo de quiebre (protegido).
type EngineHandler struct {
	reconcile reconciler
	undo      batchUndoer
	forecast  forecaster
	risk      riskReporter
	riskPDF   riskPDFDownloader
}

// NewEngineHandler construye el handler.
func NewEngineHandler(
	reconcile reconciler,
	undo batchUndoer,
	forecast forecaster,
	risk riskReporter,
	riskPDF riskPDFDownloader,
) *EngineHandler {
	return &EngineHandler{reconcile: reconcile, undo: undo, forecast: forecast, risk: risk, riskPDF: riskPDF}
}

// Reconcile godoc
// @Summary      Conciliar productos
// @Description  Recalcula saldo y consumo promedio. Sin product_ids concilia el catálogo completo.
// @Tags         engine
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  false  "product_ids"
// @Success      200   {object}  dto.ReconcileReportDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/engine/reconcile [post]
func (h *EngineHandler) Reconcile(c *fiber.Ctx) error {
	var in dto.ReconcileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	var (
		report *entity.ReconcileReport
		err    error
	)
	if len(in.ProductIDs) == 0 {
		report, err = h.reconcile.RunFullCatalog(c.Context())
	} else {
		report, err = h.reconcile.RunBatch(c.Context(), in.ProductIDs)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToReconcileReportDTO(report))
}

// UndoBatch godoc
// @Summary      Deshacer lote de importación
// @Description  Borra los movimientos del lote y reconcilia los productos afectados.
// @Tags         engine
// @Security     Bearer
// @Produce      json
// @Param        batch_id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.UndoBatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.UndoBatchErrorResponse
// @Router       /api/engine/batches/{batch_id}/undo [post]
func (h *EngineHandler) UndoBatch(c *fiber.Ctx) error {
	res, err := h.undo.UndoBatch(c.Context(), c.Params("batch_id"))
	if err != nil && res != nil {
		// el lote ya se borró; sin los productos el cliente no puede reintentar la conciliación
		status, body := errorResponse(err)
		return c.Status(status).JSON(dto.UndoBatchErrorResponse{
			ErrorResponse: body,
			BatchID:       res.BatchID,
			Deleted:       res.Deleted,
			Products:      append([]string{}, res.Products...),
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToUndoBatchResponse(res))
}

// Forecast godoc
// @Summary      Generar pronósticos de consumo
// @Tags         engine
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ForecastRequest  false  "product_ids, horizon_months"
// @Success      200   {object}  dto.ForecastResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/engine/forecasts [post]
func (h *EngineHandler) Forecast(c *fiber.Ctx) error {
	var in dto.ForecastRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	if in.HorizonMonths < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "horizon_months no puede ser negativo"})
	}
	byProduct, err := h.forecast.ForecastProducts(c.Context(), in.ProductIDs, in.HorizonMonths)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ForecastResponse{HorizonMonths: in.HorizonMonths, Products: make(map[string][]dto.ForecastPointDTO, len(byProduct))}
	for id, points := range byProduct {
		out.Products[id] = inventory.ToForecastPointDTOs(points)
		if len(points) > out.HorizonMonths {
			out.HorizonMonths = len(points)
		}
	}
	return c.JSON(out)
}

// ProductForecasts godoc
// @Summary      Pronósticos guardados de un producto
// @Tags         engine
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {array}   dto.ForecastPointDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/engine/products/{id}/forecasts [get]
func (h *EngineHandler) ProductForecasts(c *fiber.Ctx) error {
	points, err := h.forecast.ProductForecasts(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToForecastPointDTOs(points))
}

// Risks godoc
// @Summary      Riesgo de quiebre de stock
// @Description  Clasifica los productos conciliados, más urgente primero.
// @Tags         engine
// @Security     Bearer
// @Produce      json
// @Param        level        query  string  false  "STOCKOUT, CRITICAL, HIGH, MEDIUM, LOW o SAFE"
// @Param        product_ids  query  string  false  "IDs separados por coma. Vacío = todos."
// @Success      200  {object}  dto.RiskReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/engine/risks [get]
func (h *EngineHandler) Risks(c *fiber.Ctx) error {
	var level *entity.RiskLevel
	if raw := c.Query("level"); raw != "" {
		l, err := entity.ParseRiskLevel(strings.ToUpper(raw))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		level = &l
	}
	report, err := h.risk.BuildReport(c.Context(), productIDsQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	items := report.Assessments
	if level != nil {
		items = report.Filter(*level)
	}
	return c.JSON(inventory.ToRiskReportDTO(report, items))
}

// RiskAlerts godoc
// @Summary      Alertas de compras
// @Description  Productos a pedir ya, próximos a pedir y con sobrestock.
// @Tags         engine
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ProcurementAlertsDTO
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/engine/risks/alerts [get]
func (h *EngineHandler) RiskAlerts(c *fiber.Ctx) error {
	report, err := h.risk.BuildReport(c.Context(), productIDsQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToProcurementAlertsDTO(h.risk.Alerts(report)))
}

// RiskReportPDF godoc
// @Summary      Reporte de riesgo en PDF
// @Tags         engine
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/engine/risks/report.pdf [get]
func (h *EngineHandler) RiskReportPDF(c *fiber.Ctx) error {
	pdf, filename, err := h.riskPDF.DownloadRiskPDF(c.Context(), productIDsQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// productIDsQuery lee ?product_ids=a,b,c; vacío = todos.
func productIDsQuery(c *fiber.Ctx) []string {
	raw := c.Query("product_ids")
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// errorResponse traduce los errores de dominio a estado HTTP y cuerpo.
func errorResponse(err error) (int, dto.ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "almacenamiento no disponible, intente más tarde"}
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación excedió el tiempo límite"}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}
