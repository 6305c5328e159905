// Package pdf genera el reporte de riesgo de quiebre de stock en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: productos por nivel de riesgo                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Nivel | Saldo | Consumo | Días | Pedido  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: nota sobre sugerencias no vinculantes              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appinv "github.com/jhoicas/inventario-stock-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 176, Green: 0, Blue: 32}
	colorWarning = &props.Color{Red: 191, Green: 110, Blue: 0}
	colorOK      = &props.Color{Red: 0, Green: 120, Blue: 60}
)

// cantidades con agrupación de miles colombiana (1.234.567,89)
var printer = message.NewPrinter(language.MustParse("es-CO"))

// ── Generator ─────────────────────────────────────────────────────────────────

// RiskReportPDFGenerator implementa appinv.RiskReportRenderer usando Maroto v2.
type RiskReportPDFGenerator struct {
	title string
}

var _ appinv.RiskReportRenderer = (*RiskReportPDFGenerator)(nil)

// NewRiskReportPDFGenerator construye el generador; appName va como autor del documento.
func NewRiskReportPDFGenerator(appName string) *RiskReportPDFGenerator {
	return &RiskReportPDFGenerator{title: appName}
}

// RenderRiskReport genera el PDF y devuelve sus bytes.
func (g *RiskReportPDFGenerator) RenderRiskReport(_ context.Context, report *appinv.RiskReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de riesgo de quiebre de stock", true).
		WithAuthor(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(report.Assessments) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin productos conciliados.", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	for _, a := range report.Assessments {
		m.AddRows(assessmentRow(a))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar reporte de riesgo: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *appinv.RiskReport) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("RIESGO DE QUIEBRE DE STOCK", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%d productos evaluados", len(report.Assessments)), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

// summaryRow: una columna por nivel, 6 niveles x 2 = 12 columnas.
func summaryRow(report *appinv.RiskReport) core.Row {
	cols := make([]core.Col, 0, len(entity.RiskLevels()))
	for _, l := range entity.RiskLevels() {
		cols = append(cols, col.New(2).Add(
			text.New(l.String(), props.Text{
				Style: fontstyle.Bold, Size: 7, Align: align.Center, Color: levelColor(l), Top: 1,
			}),
			text.New(strconv.Itoa(report.Counts[l]), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Center, Top: 5,
			}),
		))
	}
	return row.New(14).Add(cols...)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 3, align.Left),
		h("Nivel", 2, align.Center),
		h("Saldo", 2, align.Right),
		h("Consumo/mes", 2, align.Right),
		h("Días", 1, align.Right),
		h("Pedir", 2, align.Right),
	)
}

func assessmentRow(a entity.RiskAssessment) core.Row {
	days := "-"
	if a.DaysUntilStockout != nil {
		days = strconv.Itoa(*a.DaysUntilStockout)
	}
	order := formatQty(a.RecommendedOrderQty) + " el " + a.RecommendedOrderDate.Format("02/01")
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	return row.New(6).Add(
		cell(a.ProductID, 3, align.Left),
		col.New(2).Add(text.New(a.RiskLevel.String(), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1, Color: levelColor(a.RiskLevel),
		})),
		cell(formatQty(a.CurrentBalance), 2, align.Right),
		cell(formatQty(a.AvgConsumption), 2, align.Right),
		cell(days, 1, align.Right),
		cell(order, 2, align.Right),
	)
}

func footerRow() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(
			"Las cantidades y fechas de pedido son sugerencias no vinculantes. "+
				"Productos sin política de reposición usan plazo de entrega y stock de seguridad por defecto.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func levelColor(l entity.RiskLevel) *props.Color {
	switch l {
	case entity.RiskStockout, entity.RiskCritical:
		return colorDanger
	case entity.RiskHigh, entity.RiskMedium:
		return colorWarning
	default:
		return colorOK
	}
}

// formatQty solo para presentación: dos decimales con separadores de es-CO.
func formatQty(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
