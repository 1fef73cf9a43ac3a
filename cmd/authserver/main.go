package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/config"
	"github.com/tracklight/idm/pkg/iam"
	iamapi "github.com/tracklight/idm/pkg/iam/api"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/loginflow"
	loginapi "github.com/tracklight/idm/pkg/loginflow/api"
	"github.com/tracklight/idm/pkg/notification"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
	"github.com/tracklight/idm/pkg/resetcode"
	resetapi "github.com/tracklight/idm/pkg/resetcode/api"
	"github.com/tracklight/idm/pkg/signup"
	signupapi "github.com/tracklight/idm/pkg/signup/api"
	"github.com/tracklight/idm/pkg/todo"
	todoapi "github.com/tracklight/idm/pkg/todo/api"
)

type Config struct {
	App       config.AppConfig
	Database  config.DatabaseConfig
	Session   config.SessionConfig
	RateLimit config.RateLimitConfig
	ResetCode config.ResetCodeConfig
	Password  config.PasswordConfig
	Email     config.EmailConfig
}

func main() {
	// Missing .env is fine; variables may come from the real environment.
	godotenv.Load()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed reading config from env", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed creating dbpool", "host", cfg.Database.Host, "db", cfg.Database.Database, "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Repositories
	userRepo := identity.NewPostgresUserRepository(pool)
	codeRepo := resetcode.NewPostgresRepository(pool)
	bucketRepo := ratelimit.NewPostgresBucketRepository(pool)
	auditRepo := audit.NewPostgresRepository(pool)
	iamRepo := iam.NewPostgresRepository(pool)
	todoRepo := todo.NewPostgresRepository(pool)

	// Collaborators
	hasher := password.NewBcryptHasher()
	policy := cfg.Password.ToPolicy()
	limiter := ratelimit.NewLimiter(bucketRepo, cfg.RateLimit.Pepper)
	auditor := audit.NewRecorder(auditRepo)

	notifier := notification.NewManager()
	var mailbox *notification.DevMailbox
	if cfg.App.IsLocal() {
		mailbox = notification.NewDevMailbox()
		notifier.Register(mailbox)
		slog.Info("Local mode: reset codes are captured in the dev mailbox")
	} else {
		emailNotifier, err := notification.NewEmailNotifier(cfg.Email.ToSMTPConfig())
		if err != nil {
			slog.Error("Failed creating email notifier", "err", err)
			os.Exit(1)
		}
		notifier.Register(emailNotifier)
	}

	// Services
	resetService := resetcode.NewService(
		codeRepo, userRepo, hasher, limiter, auditor, notifier,
		cfg.ResetCode.Pepper,
		resetcode.WithTTL(cfg.ResetCode.ToTTL()),
		resetcode.WithMaxAttempts(cfg.ResetCode.MaxAttempts),
		resetcode.WithPolicy(policy),
	)
	loginService := loginflow.NewService(userRepo, hasher, limiter, auditor)
	signupService := signup.NewService(userRepo, hasher, policy)
	iamService := iam.NewService(iamRepo, auditor)
	todoService := todo.NewService(todoRepo)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.Session.Secret), nil)
	tokenTTL := time.Duration(cfg.Session.TokenTTLMins) * time.Minute

	// Handlers
	signupHandle := signupapi.NewHandle(signupService)
	loginHandle := loginapi.NewHandle(loginService, tokenAuth, tokenTTL)
	resetHandle := resetapi.NewHandle(resetService, mailbox)
	adminHandle := iamapi.NewHandle(iamService, resetService)
	todoHandle := todoapi.NewHandle(todoService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		// Public surface
		signupHandle.RegisterRoutes(r)
		loginHandle.RegisterRoutes(r)
		resetHandle.RegisterRoutes(r)

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(iam.Verifier(tokenAuth))
			r.Use(iam.Authenticator(iamService))
			todoHandle.RegisterRoutes(r)
			r.Route("/admin", adminHandle.RegisterRoutes)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "addr", addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "err", err)
	}
}
