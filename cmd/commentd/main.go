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

	"github.com/guilhalves/spotlight/internal/api"
	"github.com/guilhalves/spotlight/internal/auth"
	ledgerclient "github.com/guilhalves/spotlight/internal/clients/ledger"
	notificationsclient "github.com/guilhalves/spotlight/internal/clients/notifications"
	usersclient "github.com/guilhalves/spotlight/internal/clients/users"
	"github.com/guilhalves/spotlight/internal/config"
	"github.com/guilhalves/spotlight/internal/infra/logging"
	"github.com/guilhalves/spotlight/internal/infra/pgutils"
	"github.com/guilhalves/spotlight/internal/ratelimit"
	commentspg "github.com/guilhalves/spotlight/internal/repos/comments/postgres"
	postspg "github.com/guilhalves/spotlight/internal/repos/posts/postgres"
	"github.com/guilhalves/spotlight/internal/services/comments"
	"github.com/guilhalves/spotlight/pkg/envconf"
	"github.com/guilhalves/spotlight/pkg/shutdownqueue"
)

type commentdConfig struct {
	Port            uint16        `env:"COMMENT_PORT" envDefault:"8082"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Postgres config.PostgresConfig
	Auth     config.AuthConfig

	LedgerURL        string        `env:"LEDGER_URL"`
	UsersURL         string        `env:"USERS_URL"`
	NotificationsURL string        `env:"NOTIFICATIONS_URL"`
	ClientTimeout    time.Duration `env:"CLIENT_TIMEOUT" envDefault:"5s"`

	RateLimitPath   string        `env:"RATE_LIMIT_PATH" envDefault:"/var/lib/spotlight/ratelimit"`
	CommentsPerTime int           `env:"COMMENTS_PER_TIME" envDefault:"5"`
	CommentBlock    time.Duration `env:"TIME_COMMENT_BLOCK" envDefault:"10m"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running commentd: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(commentdConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON("commentd", cfg.LogLevel)

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

	markerDB, err := ratelimit.OpenStore(cfg.RateLimitPath)
	if err != nil {
		return fmt.Errorf("open rate-limit store: %w", err)
	}

	shutdownqueue.Add("rate-limit store", func(context.Context) error {
		return markerDB.Close()
	})

	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	// --- Remote collaborators ---
	ledgerC := ledgerclient.NewClient(cfg.LedgerURL, issuer, cfg.ClientTimeout)
	usersC := usersclient.NewClient(cfg.UsersURL, issuer, cfg.ClientTimeout)
	notificationsC := notificationsclient.NewClient(cfg.NotificationsURL, issuer, cfg.ClientTimeout)

	shutdownqueue.Add("http clients", func(context.Context) error {
		return errors.Join(ledgerC.Close(), usersC.Close(), notificationsC.Close())
	})

	commentSvc := comments.New(
		commentspg.New(db),
		postspg.New(db),
		ledgerC,
		usersC,
		notificationsC,
		ratelimit.New(markerDB, cfg.CommentBlock, cfg.CommentsPerTime),
	)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewCommentRouter(commentSvc, issuer))

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

	slog.Info("commentd started", "port", cfg.Port)

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
