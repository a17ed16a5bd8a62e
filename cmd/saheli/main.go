package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahelilabs/saheli/internal/auth"
	"github.com/sahelilabs/saheli/internal/call"
	"github.com/sahelilabs/saheli/internal/config"
	"github.com/sahelilabs/saheli/internal/convo"
	"github.com/sahelilabs/saheli/internal/gateway"
	"github.com/sahelilabs/saheli/internal/httpapi"
	"github.com/sahelilabs/saheli/internal/observability"
	"github.com/sahelilabs/saheli/internal/persona"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	personaStore, err := persona.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("persona store init failed: %v", err)
	}
	defer personaStore.Close()

	historyStore, err := convo.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("conversation store init failed: %v", err)
	}
	defer historyStore.Close()

	var (
		transcriber gateway.Transcriber
		generator   gateway.Generator
		synthesizer gateway.Synthesizer
	)
	if cfg.UseFakeGateways {
		transcriber = &gateway.FakeTranscriber{}
		generator = &gateway.FakeGenerator{}
		synthesizer = &gateway.FakeSynthesizer{}
		log.Printf("gateways: fake (no upstream calls)")
	} else {
		transcriber = gateway.NewHTTPTranscriber(cfg.TranscriptionURL, cfg.TranscriptionAPIKey, cfg.TranscriptionModel)
		generator = gateway.NewHTTPGenerator(cfg.GenerationURL, cfg.GenerationAPIKey, cfg.GenerationModel)
		synthesizer = gateway.NewHTTPSynthesizer(cfg.SynthesisBaseURL, cfg.SynthesisAPIKey, cfg.SynthesisOutputFormat)
		log.Printf("gateways: http")
	}

	var verifier auth.Verifier
	switch {
	case cfg.AuthServiceURL != "":
		verifier = auth.NewHTTPVerifier(cfg.AuthServiceURL)
		log.Printf("auth: http verifier at %s", cfg.AuthServiceURL)
	case cfg.DevAuthToken != "":
		verifier = auth.NewStaticVerifier(map[string]string{cfg.DevAuthToken: "dev-user"})
		log.Printf("auth: static dev token")
	default:
		log.Fatalf("set AUTH_SERVICE_URL or DEV_AUTH_TOKEN")
	}

	latency := observability.NewLatencyWindow(256)
	registry := call.NewRegistry(cfg.CallInactivityTimeout, func(s *call.Session) {
		log.Printf("call %s expired after inactivity", s.ID)
	})

	orchestrator := call.NewOrchestrator(
		personaStore,
		historyStore,
		nil,
		transcriber,
		generator,
		synthesizer,
		latency,
	)

	api := httpapi.New(cfg, personaStore, registry, orchestrator, verifier, latency)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	go registry.StartJanitor(runCtx, cfg.JanitorInterval)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
