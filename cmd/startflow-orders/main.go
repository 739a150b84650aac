// Command startflow-orders demonstrates process-start interception: an
// order service declares PlaceOrder as starting the "orderFulfilment"
// process, the installer proxies it inside a component container, and
// every successful call starts a run with the customer and quantity as
// variables.
//
// Usage:
//
//	go run ./cmd/startflow-orders -config startflow.yaml
//
// Configuration is read from the YAML file (optional) and STARTFLOW_*
// environment variables, for example:
//
//	STARTFLOW_STORE_DRIVER=sqlite STARTFLOW_STORE_DSN=file:runs.db go run ./cmd/startflow-orders
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xraph/startflow"
	audithook "github.com/xraph/startflow/audit_hook"
	"github.com/xraph/startflow/container"
	"github.com/xraph/startflow/engine"
	"github.com/xraph/startflow/marker"
	mw "github.com/xraph/startflow/middleware"
	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/store"
	"github.com/xraph/startflow/workflow"
)

// OrderService places orders. PlaceOrder starts the fulfilment process.
type OrderService struct {
	logger *slog.Logger
}

// ProcessMethods declares the process-starting methods.
func (*OrderService) ProcessMethods() []marker.Method {
	return []marker.Method{
		marker.Trigger("PlaceOrder", "orderFulfilment",
			marker.Var("customerID", "customerId"),
			marker.Var("qty", "qty"),
		),
	}
}

// PlaceOrder records an order. The started run is returned in place of nil.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID string, qty int) (*workflow.Run, error) {
	s.logger.Info("order placed", slog.String("customer", customerID), slog.Int("qty", qty))
	return nil, nil
}

type fulfilment struct {
	CustomerID string `json:"customerId"`
	Qty        int    `json:"qty"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error("startflow-orders failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	// ──────────────────────────────────────────────────
	// 1. Configuration and store
	// ──────────────────────────────────────────────────

	cfg, err := startflow.LoadConfig(configPath)
	if err != nil {
		return err
	}

	storeCfg := cfg.Store
	storeCfg.DisableMigrate = true // the engine migrates on Start
	s, err := store.Open(ctx, storeCfg, logger)
	if err != nil {
		return err
	}

	rt, err := startflow.New(
		startflow.WithConfig(cfg),
		startflow.WithStore(s),
		startflow.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	// ──────────────────────────────────────────────────
	// 2. Engine, processes and hooks
	// ──────────────────────────────────────────────────

	audit := audithook.New(audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		logger.Info("audit",
			slog.String("action", evt.Action),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
		)
		return nil
	}), audithook.WithLogger(logger))

	eng, err := engine.Build(rt,
		engine.WithExtension(audit),
		engine.WithOuterInterceptor(
			mw.Scope("startflow-orders", ""),
			mw.Timeout(5*time.Second, logger),
		),
	)
	if err != nil {
		return err
	}

	engine.RegisterWorkflow(eng, workflow.NewWorkflow("orderFulfilment", func(wf *workflow.Workflow, in fulfilment) error {
		if err := wf.Step("reserve-stock", func(context.Context) error {
			logger.Info("stock reserved", slog.Int("qty", in.Qty))
			return nil
		}); err != nil {
			return err
		}
		return wf.Step("notify-customer", func(context.Context) error {
			logger.Info("customer notified", slog.String("customer", in.CustomerID))
			return nil
		})
	}))

	// ──────────────────────────────────────────────────
	// 3. Container with the installer attached
	// ──────────────────────────────────────────────────

	c := container.New(container.WithLogger(logger))
	c.AddPostProcessor(eng.Installer())
	if err := c.Register("orders", &OrderService{logger: logger}); err != nil {
		return err
	}

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := eng.Stop(shutdownCtx); err != nil {
			logger.Error("engine shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := c.Start(ctx); err != nil {
		return err
	}

	// ──────────────────────────────────────────────────
	// 4. Call through the proxy
	// ──────────────────────────────────────────────────

	orders, err := container.Resolve[*proxy.Proxy](c, "orders")
	if err != nil {
		return err
	}

	r, err := proxy.Call[*workflow.Run](ctx, orders, "PlaceOrder", "C-1", 42)
	if err != nil {
		return err
	}
	logger.Info("process started",
		slog.String("run_id", r.ID.String()),
		slog.String("state", string(r.State)),
	)
	return nil
}
