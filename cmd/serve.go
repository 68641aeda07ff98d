package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"golang-physiobackend/helpers"
	"golang-physiobackend/routes"
	"golang-physiobackend/services"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func buildServices(ctx context.Context) (*services.Services, func(), error) {
	if err := cfg.ResolveSecrets(ctx); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	tokens, err := helpers.NewTokenMaker(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenTTL)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	cleanups := []func(){func() { _ = store.Close(context.Background()) }}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	deps := services.Deps{
		Store:  store,
		Hasher: helpers.NewPasswordHasher(cfg.BcryptCost),
		Tokens: tokens,
		Mailer: helpers.NewSMTPMailer(helpers.SMTPConfig{
			From:        cfg.EmailFrom,
			Password:    cfg.EmailPassword,
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			FrontendURL: cfg.FrontendURL,
		}, log.Named("mail")),
		PublishableKey: cfg.StripePublishableKey,
		Log:            log,
	}

	if cfg.PaymentsEnabled() {
		deps.Payments = helpers.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set; payment endpoints will fail")
	}

	cache, err := openCache(ctx)
	if err != nil {
		log.Warn("exercise cache disabled", zap.Error(err))
	} else if cache != nil {
		deps.Cache = cache
		cleanups = append(cleanups, func() { _ = cache.Close() })
	}

	if cfg.VideoSigningEnabled() {
		signer, err := helpers.NewVideoSigner(ctx, helpers.SpacesConfig{
			Key:      cfg.SpacesKey,
			Secret:   cfg.SpacesSecret,
			Endpoint: cfg.SpacesEndpoint,
			Region:   cfg.SpacesRegion,
			Bucket:   cfg.SpacesBucket,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Videos = signer
	}

	return services.New(deps), cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	gin.SetMode(cfg.GinMode)
	router := routes.NewRouter(routes.Options{
		Services:    svc,
		Health:      svc.Health,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
