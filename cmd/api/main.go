package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mimino/internal/credits"
	"mimino/internal/http/handlers"
	"mimino/internal/http/httpapi"
	"mimino/internal/infra"
	"mimino/internal/intent"
	"mimino/internal/media"
	"mimino/internal/orchestrator"
	"mimino/internal/providers/genai"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	client, err := genai.NewClient(genai.Options{
		APIKey:          cfg.GeminiAPIKey,
		BaseURL:         cfg.GeminiBaseURL,
		ImageModel:      cfg.GeminiImageModel,
		VideoModel:      cfg.GeminiVideoModel,
		ChatModel:       cfg.GeminiChatModel,
		PollInterval:    cfg.VideoPollInterval,
		MaxPollAttempts: cfg.VideoMaxPollAttempts,
		VideoResolution: cfg.VideoResolution,
		VideoAspect:     cfg.VideoAspectRatio,
		Logger:          &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure gemini client")
	}

	previews := media.NewPreviewStore()
	encoder := media.NewEncoder(cfg.MediaTypePrefix, previews)
	ledger := credits.NewLedger(cfg.InitialCredits)
	purchaser := credits.NewPurchaser(ledger, cfg.PurchaseDelay, cfg.CreditBundleSize, logger)
	router := intent.NewRouter(client, logger)

	app := &handlers.App{
		Cfg:       cfg,
		Logger:    logger,
		Encoder:   encoder,
		Previews:  previews,
		Editor:    orchestrator.NewEditorSurface(client, previews, logger),
		Video:     orchestrator.NewVideoSurface(client, ledger, orchestrator.NoopKeySelector{}, previews, logger),
		Chat:      orchestrator.NewChatSurface(router, func() intent.Conversation { return client.NewChat() }, previews, cfg.DefaultLocale, logger),
		Ledger:    ledger,
		Purchaser: purchaser,
		Stats:     &handlers.Stats{},
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
