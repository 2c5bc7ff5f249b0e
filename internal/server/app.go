// Package server wires configuration, storage, services and transports into
// a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sendly-app/sendly/internal/cryptox"
	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/auth"
	"github.com/sendly-app/sendly/internal/server/config"
	"github.com/sendly-app/sendly/internal/server/httpapi"
	"github.com/sendly-app/sendly/internal/server/mailer"
	"github.com/sendly-app/sendly/internal/server/notify"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"github.com/sendly-app/sendly/internal/server/scheduler"
	"github.com/sendly-app/sendly/internal/server/services"
	"github.com/sendly-app/sendly/internal/server/storage"
	"github.com/sendly-app/sendly/internal/server/templating"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	hub       *notify.Hub
	http      *http.Server
	scheduler *scheduler.Scheduler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, logging.Options{
		Backend: c.LogBackend,
		Format:  c.LogFormat,
		Debug:   !c.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app, err := build(ctx, c, logger, db, rm)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	catalogue, err := templating.LoadCatalogue()
	if err != nil {
		return nil, fmt.Errorf("template catalogue error: %w", err)
	}

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		PublicURL:    c.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	hub := notify.NewHub(c.AllowedOrigins, logger)
	issuer := auth.NewIssuer([]byte(c.SecretKey), c.SessionValidityDuration, c.PendingLoginValidityDuration)

	notifications := services.NewNotificationService(db, rm, hub, logger)
	sessions := services.NewSessionService(db, rm, c.SessionValidityDuration, logger)
	sealer, err := cryptox.NewSealer(cryptox.DeriveKey([]byte(c.SecretKey), []byte("sendly-totp")))
	if err != nil {
		return nil, fmt.Errorf("sealer init error: %w", err)
	}
	security := services.NewSecurityService(db, rm, auth.TOTP{Issuer: c.TOTPIssuer}, sealer, notifications)
	users := services.NewUserService(db, rm, issuer, sessions, security, logger)
	delivery := services.NewDelivery(db, rm, sender, notifications, logger)
	templates := services.NewTemplateService(db, rm, catalogue, delivery)
	schedules := services.NewScheduleService(db, rm, templates, delivery, notifications, logger)

	h := httpapi.NewHandler(httpapi.Handler{
		Issuer:        issuer,
		Users:         users,
		Sessions:      sessions,
		Security:      security,
		Templates:     templates,
		Contacts:      services.NewContactService(db, rm),
		History:       services.NewHistoryService(db, rm),
		Schedules:     schedules,
		Notifications: notifications,
		Profiles:      services.NewProfileService(db, rm, store),
		Images:        services.NewImageService(db, rm),
		Live:          hub,
	}, httpapi.Options{
		Production:     c.IsProduction(),
		AllowedOrigins: c.AllowedOrigins,
		CookieDomain:   c.CookieDomain,
		CookieSecure:   c.CookieSecure,
		CookieMaxAge:   c.SessionValidityDuration,
	}, logger)

	sched := scheduler.New(logger,
		scheduler.Job{Name: "dispatch-scheduled", Interval: c.DispatchInterval, Run: schedules.DispatchDue},
		scheduler.Job{Name: "purge-sessions", Interval: c.SessionSweepInterval, Run: func(ctx context.Context) (int, error) {
			n, err := sessions.PurgeExpired(ctx)
			return int(n), err
		}},
	)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		hub:    hub,
		http: &http.Server{
			Addr:              c.HTTPAddr,
			Handler:           httpapi.NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: sched,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.http.Shutdown(sctx); err != nil {
			app.logger.Error(sctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.http.Addr)
	if err := app.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or the HTTP server fails,
// then drains background work and releases the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.scheduler.Run(ctx)
	}()

	wg.Wait()

	app.hub.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "app stopped")
}
