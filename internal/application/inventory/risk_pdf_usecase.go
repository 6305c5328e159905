package inventory

import (
	"context"
	"fmt"
)

// RiskPDFUseCase genera la representación en PDF del reporte de riesgo.
type RiskPDFUseCase struct {
	risk     *RiskReportUseCase
	renderer RiskReportRenderer
}

// NewRiskPDFUseCase construye el caso de uso.
func NewRiskPDFUseCase(risk *RiskReportUseCase, renderer RiskReportRenderer) *RiskPDFUseCase {
	return &RiskPDFUseCase{risk: risk, renderer: renderer}
}

// DownloadRiskPDF arma el reporte de los productos indicados (vacío = todos) y lo renderiza.
// Retorna los bytes del PDF y un nombre de archivo con la fecha de generación.
func (uc *RiskPDFUseCase) DownloadRiskPDF(ctx context.Context, productIDs []string) (pdfBytes []byte, filename string, err error) {
	report, err := uc.risk.BuildReport(ctx, productIDs)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.renderer.RenderRiskReport(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	filename = fmt.Sprintf("riesgo_stock_%s.pdf", report.GeneratedAt.Format("20060102_1504"))
	return pdfBytes, filename, nil
}
