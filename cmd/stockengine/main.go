// Command stockengine concilia el libro de movimientos, pronostica consumo y clasifica
// el riesgo de quiebre de stock.
//
// Uso:
//
//	stockengine serve                     API HTTP + corrida programada
//	stockengine reconcile [ids...]        concilia (sin ids = catálogo completo)
//	stockengine forecast [--horizon N] [ids...]
//	stockengine risks [--level NIVEL] [--alerts] [--pdf archivo] [ids...]
//	stockengine undo-batch <batch_id>
//	stockengine token <user_id> <role> [--company ID] [--exp minutos]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/pflag"

	"github.com/jhoicas/inventario-stock-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	infrapdf "github.com/jhoicas/inventario-stock-engine/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/inventario-stock-engine/internal/interfaces/http"
	"github.com/jhoicas/inventario-stock-engine/pkg/config"
	"github.com/jhoicas/inventario-stock-engine/pkg/jwt"
	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

// engine casos de uso armados sobre el almacén configurado.
type engine struct {
	reconcile *inventory.ReconcileUseCase
	undo      *inventory.UndoBatchUseCase
	forecast  *inventory.ForecastUseCase
	risk      *inventory.RiskReportUseCase
	riskPDF   *inventory.RiskPDFUseCase
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	// token no necesita almacén
	if cmd == "token" {
		if err := runToken(cfg, args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("conexión al almacén")
	}
	defer st.close()

	eng := wire(cfg, st, log)

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, eng, log)
	case "reconcile":
		err = runReconcile(ctx, eng, args)
	case "forecast":
		err = runForecast(ctx, eng, args)
	case "risks":
		err = runRisks(ctx, eng, args)
	case "undo-batch":
		err = runUndoBatch(ctx, eng, args)
	default:
		err = fmt.Errorf("comando desconocido %q (serve, reconcile, forecast, risks, undo-batch, token)", cmd)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("comando fallido")
		st.close()
		os.Exit(1)
	}
}

func wire(cfg *config.Config, st *store, log *logger.Logger) *engine {
	opts := inventory.OptionsFromConfig(cfg.Engine)
	reconcile := inventory.NewReconcileUseCase(st.movements, st.tx, log, opts)
	risk := inventory.NewRiskReportUseCase(st.aggs, st.policies, log, opts)
	return &engine{
		reconcile: reconcile,
		undo:      inventory.NewUndoBatchUseCase(st.tx, reconcile, log),
		forecast:  inventory.NewForecastUseCase(st.movements, st.forecasts, st.tx, log, opts),
		risk:      risk,
		riskPDF:   inventory.NewRiskPDFUseCase(risk, infrapdf.NewRiskReportPDFGenerator(cfg.App.Name)),
	}
}

// ── serve ─────────────────────────────────────────────────────────────────────

func runServe(ctx context.Context, cfg *config.Config, eng *engine, log *logger.Logger) error {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute * 5, // una conciliación de catálogo completo puede tardar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Engine API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Reconcile: eng.reconcile,
		UndoBatch: eng.undo,
		Forecast:  eng.forecast,
		Risk:      eng.risk,
		RiskPDF:   eng.riskPDF,
		JWTSecret: cfg.JWT.Secret,
	})

	if cfg.Engine.ScheduleInterval > 0 {
		scheduler := inventory.NewScheduler(eng.reconcile, eng.forecast, cfg.Engine.ScheduleInterval)
		go scheduler.Start(ctx)
	} else {
		log.Info().Msg("corrida programada deshabilitada (ENGINE_SCHEDULE_INTERVAL=0)")
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr()).Str("driver", cfg.DB.Driver).Msg("servidor HTTP escuchando")
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("apagado del servidor: %w", err)
	}
	log.Info().Msg("aplicación detenida")
	return nil
}

// ── comandos por lotes ────────────────────────────────────────────────────────

func runReconcile(ctx context.Context, eng *engine, args []string) error {
	var (
		report *entity.ReconcileReport
		err    error
	)
	if len(args) == 0 {
		report, err = eng.reconcile.RunFullCatalog(ctx)
	} else {
		report, err = eng.reconcile.RunBatch(ctx, args)
	}
	if err != nil {
		return err
	}
	return printJSON(inventory.ToReconcileReportDTO(report))
}

func runForecast(ctx context.Context, eng *engine, args []string) error {
	fs := pflag.NewFlagSet("forecast", pflag.ContinueOnError)
	horizon := fs.Int("horizon", 0, "meses a pronosticar (0 = ENGINE_HORIZON_MONTHS)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	byProduct, err := eng.forecast.ForecastProducts(ctx, fs.Args(), *horizon)
	if err != nil {
		return err
	}
	out := make(map[string]any, len(byProduct))
	for id, points := range byProduct {
		out[id] = inventory.ToForecastPointDTOs(points)
	}
	return printJSON(out)
}

func runRisks(ctx context.Context, eng *engine, args []string) error {
	fs := pflag.NewFlagSet("risks", pflag.ContinueOnError)
	level := fs.String("level", "", "filtrar por nivel (STOCKOUT, CRITICAL, HIGH, MEDIUM, LOW, SAFE)")
	alerts := fs.Bool("alerts", false, "mostrar alertas de compras en lugar del reporte")
	pdfPath := fs.String("pdf", "", "escribir el reporte en PDF en este archivo")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *pdfPath != "" {
		pdf, _, err := eng.riskPDF.DownloadRiskPDF(ctx, fs.Args())
		if err != nil {
			return err
		}
		return os.WriteFile(*pdfPath, pdf, 0o644)
	}

	report, err := eng.risk.BuildReport(ctx, fs.Args())
	if err != nil {
		return err
	}
	if *alerts {
		return printJSON(inventory.ToProcurementAlertsDTO(eng.risk.Alerts(report)))
	}
	items := report.Assessments
	if *level != "" {
		l, err := entity.ParseRiskLevel(strings.ToUpper(*level))
		if err != nil {
			return err
		}
		items = report.Filter(l)
	}
	return printJSON(inventory.ToRiskReportDTO(report, items))
}

func runUndoBatch(ctx context.Context, eng *engine, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: stockengine undo-batch <batch_id>")
	}
	res, err := eng.undo.UndoBatch(ctx, args[0])
	if err != nil && res != nil {
		return fmt.Errorf("%w (reconciliar de nuevo: stockengine reconcile %s)", err, strings.Join(res.Products, " "))
	}
	if err != nil {
		return err
	}
	return printJSON(inventory.ToUndoBatchResponse(res))
}

// runToken emite un JWT para el subsistema de importación u otro cliente de servicio.
func runToken(cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	companyID := fs.String("company", "", "company_id a incluir en el token")
	exp := fs.Int("exp", cfg.JWT.Expiration, "expiración en minutos")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("uso: stockengine token <user_id> <role> [--company ID] [--exp minutos]")
	}
	role := fs.Arg(1)
	switch role {
	case httpRouter.RoleAdmin, httpRouter.RoleBodeguero, httpRouter.RoleVendedor:
	default:
		return fmt.Errorf("rol desconocido %q (admin, bodeguero, vendedor)", role)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, fs.Arg(0), *companyID, role, cfg.JWT.Issuer, *exp)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
