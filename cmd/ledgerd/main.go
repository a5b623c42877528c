package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guilhalves/spotlight/internal/api"
	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/config"
	"github.com/guilhalves/spotlight/internal/infra/logging"
	"github.com/guilhalves/spotlight/internal/infra/pgutils"
	"github.com/guilhalves/spotlight/internal/services/ledger"
	"github.com/guilhalves/spotlight/pkg/envconf"
	"github.com/guilhalves/spotlight/pkg/shutdownqueue"
)

type ledgerdConfig struct {
	Port            uint16        `env:"LEDGER_PORT" envDefault:"8081"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Postgres config.PostgresConfig
	Auth     config.AuthConfig

	TaxRate       decimal.Decimal `env:"LEDGER_TAX_RATE" envDefault:"0.05"`
	GraceWindow   time.Duration   `env:"LEDGER_GRACE_WINDOW" envDefault:"10m"`
	SweepInterval time.Duration   `env:"LEDGER_SWEEP_INTERVAL" envDefault:"1m"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running ledgerd: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(ledgerdConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON("ledgerd", cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	cfg.Postgres.Tune(db)

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	ledgerSvc := ledger.New(db, ledger.Config{
		TaxRate:     cfg.TaxRate,
		GraceWindow: cfg.GraceWindow,
	})

	// --- Background sweeper ---
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})

	go func() {
		defer close(sweeperDone)
		ledgerSvc.RunSweeper(sweepCtx, cfg.SweepInterval)
	}()

	shutdownqueue.Add("sweeper", func(c context.Context) error {
		stopSweeper()

		select {
		case <-sweeperDone:
			return nil
		case <-c.Done():
			return c.Err()
		}
	})

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewLedgerRouter(ledgerSvc, issuer))

	shutdownqueue.Add("http server", func(c context.Context) error {
		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("ledgerd started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
