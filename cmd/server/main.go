package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/mealplan-server/auth"
	"github.com/jrsteele09/mealplan-server/internal/config"
	"github.com/jrsteele09/mealplan-server/internal/dbx"
	"github.com/jrsteele09/mealplan-server/internal/events"
	"github.com/jrsteele09/mealplan-server/internal/logging"
	"github.com/jrsteele09/mealplan-server/internal/migrations"
	"github.com/jrsteele09/mealplan-server/internal/telemetry"
	"github.com/jrsteele09/mealplan-server/server"
	"github.com/jrsteele09/mealplan-server/token"
	"github.com/jrsteele09/mealplan-server/token/refresh"
	refreshpg "github.com/jrsteele09/mealplan-server/token/refresh/postgres"
	refreshredis "github.com/jrsteele09/mealplan-server/token/refresh/redis"
	refreshrepofake "github.com/jrsteele09/mealplan-server/token/refresh/repofake"
	"github.com/jrsteele09/mealplan-server/users"
	userspg "github.com/jrsteele09/mealplan-server/users/postgres"
	fakeuserrepo "github.com/jrsteele09/mealplan-server/users/repofake"
	"github.com/rs/zerolog"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Hour
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running server: %s\n", err)
		os.Exit(1)
	}
}

// stores are the backends chosen by STORE_BACKEND
type stores struct {
	refresh     refresh.Store
	identities  users.IdentityLookup
	credentials users.CredentialChecker
	closers     []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logger := logging.New(c.GetEnv(), os.Stdout)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, c.GetAppName(), c.GetOtelEndpoint())
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	publisher, closePublisher, err := newPublisher(c, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	st, err := openStores(ctx, c, logger)
	if err != nil {
		return err
	}
	defer st.close()

	signer, err := token.NewHMACSigner(c.GetJWTSecret())
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}
	codec := token.NewCodec(signer, token.WithTTL(c.GetAccessTokenExpiry()))
	logger.Info().
		Dur("access_ttl", codec.TTL()).
		Dur("refresh_ttl", c.GetRefreshTokenExpiry()).
		Msg("session lifetimes")
	authenticator, err := auth.NewAuthenticator(auth.Deps{
		Codec:       codec,
		Refresh:     refresh.NewManager(st.refresh, c),
		Identities:  st.identities,
		Credentials: st.credentials,
	},
		auth.WithLogger(logger.With().Str("component", "auth").Logger()),
		auth.WithPublisher(publisher),
		auth.WithStoreTimeout(c.GetStoreTimeout()),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(c, authenticator, server.WithLogger(logger))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer, logger) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(httpServer)
}

func newPublisher(c config.Config, logger zerolog.Logger) (events.Publisher, func(), error) {
	logPublisher := events.NewLogPublisher(logger)
	if c.GetNatsURL() == "" {
		return logPublisher, func() {}, nil
	}
	natsPublisher, err := events.Connect(c.GetNatsURL())
	if err != nil {
		return nil, nil, err
	}
	return events.Multi(logPublisher, natsPublisher), natsPublisher.Close, nil
}

func openStores(ctx context.Context, c config.Config, logger zerolog.Logger) (*stores, error) {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	st := &stores{}
	var db *sql.DB
	if c.GetDatabaseDSN() != "" {
		var err error
		if db, err = dbx.Open(startCtx, c.GetDatabaseDSN()); err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		if err := migrations.Run(startCtx, db); err != nil {
			st.close()
			return nil, err
		}
		repo := userspg.NewRepository(db)
		st.identities, st.credentials = repo, repo
	} else {
		if c.GetEnv() != config.EnvDev {
			return nil, fmt.Errorf("DATABASE_DSN is required when ENV=%s", c.GetEnv())
		}
		repo := fakeuserrepo.NewFakeUserRepo()
		if _, err := server.InitialiseDemoUsers(c.GetEnv(), repo, logger); err != nil {
			return nil, err
		}
		st.identities, st.credentials = repo, repo
	}

	switch c.GetStoreBackend() {
	case config.StoreBackendPostgres:
		if db == nil {
			return nil, errors.New("STORE_BACKEND=postgres needs DATABASE_DSN")
		}
		pgStore := refreshpg.NewStore(db)
		st.refresh = pgStore
		go runJanitor(ctx, pgStore, logger)
	case config.StoreBackendRedis:
		client := refreshredis.NewClient(c.GetRedisAddr())
		if err := client.Ping(startCtx).Err(); err != nil {
			_ = client.Close()
			st.close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.refresh = refreshredis.NewStore(client)
	default:
		st.refresh = refreshrepofake.NewFakeRefreshTokenRepo()
	}

	logger.Info().
		Str("refresh_store", c.GetStoreBackend()).
		Bool("users_in_postgres", db != nil).
		Msg("session stores ready")
	return st, nil
}

// runJanitor removes expired refresh tokens from postgres until ctx ends
func runJanitor(ctx context.Context, store *refreshpg.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := store.DeleteExpired(ctx, time.Now())
		if err != nil {
			logger.Error().Err(err).Msg("expired refresh token cleanup failed")
			continue
		}
		logger.Debug().Int64("deleted", n).Msg("expired refresh tokens removed")
	}
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
