// Command server wires together the phrase-clip finder and streaming
// analysis service's collaborators and starts the HTTP surface. Grounded
// on the teacher's main.go composition-root style: package-level
// construction, http.HandleFunc routing, and a log.Println'd graceful
// shutdown, extended here with a real OS-signal-triggered http.Server
// shutdown that also waits for the worker pool to finish its in-flight
// jobs. Stream registry drivers are not waited for.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clipfinder/clipfinder/internal/adapters"
	"github.com/clipfinder/clipfinder/internal/analysis"
	"github.com/clipfinder/clipfinder/internal/config"
	"github.com/clipfinder/clipfinder/internal/httpapi"
	"github.com/clipfinder/clipfinder/internal/pipeline"
	"github.com/clipfinder/clipfinder/internal/quota"
	"github.com/clipfinder/clipfinder/internal/store"
	"github.com/clipfinder/clipfinder/internal/stream"
	"github.com/clipfinder/clipfinder/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	catalog := adapters.NewYtDlpCatalog()

	var aiStreamer adapters.AIStreamer
	var transcriber adapters.Transcriber
	if cfg.HasValidOpenAI() {
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		clientCfg.BaseURL = cfg.OpenAIBaseURL
		client := openai.NewClientWithConfig(clientCfg)
		aiStreamer = adapters.NewOpenAIStreamer(client, cfg.OpenAIModel, cfg.UpstreamRetries)
		transcriber = adapters.NewWhisperTranscriber(client, "")
	} else {
		log.Println("server: OPENAI_API_KEY not set, AI-dependent endpoints will fail upstream calls")
	}

	analysisCache := &analysis.Cache{Store: st}
	registry := stream.NewRegistry(aiDriver(aiStreamer), cfg.MaxActiveStreams, cfg.StreamCompletedCleanup, cfg.StreamErrorCleanup, cfg.UpstreamTimeout)
	registry.OnComplete = analysisCache.OnComplete
	registry.OnError = analysisCache.OnError

	entitlement := adapters.NoEntitlement{}
	quotaEngine := quota.New(st, entitlement, cfg.AIQuotaFreeLimit, cfg.AIQuotaWindow, cfg.EntitlementCacheTTL)

	pl := &pipeline.Pipeline{
		Store:               st,
		Catalog:             catalog,
		Embed:               catalog,
		Downloader:          catalog,
		Transcribe:          transcriber,
		ScratchDir:          cfg.ScratchDir,
		ChunkSeconds:        cfg.ChunkSeconds,
		MaxTranscribeChunks: cfg.MaxTranscribeChunks,
		MaxCandidates:       cfg.MaxCandidates,
		BoundaryPaddingSec:  cfg.BoundaryPaddingSec,
		MinFunctionWordHits: cfg.MinFunctionWordHits,
		MaxNonASCIIRatio:    cfg.MaxNonASCIIRatio,
	}
	pool := worker.New(st, pl, cfg.MaxConcurrentJobs, cfg.PollInterval, cfg.JobWallClock)

	srv := &httpapi.Server{
		Store:             st,
		Registry:          registry,
		Analysis:          analysisCache,
		Quota:             quotaEngine,
		AI:                aiStreamer,
		ThrottleUserLimit: cfg.ThrottleUserLimit,
		ThrottleIPLimit:   cfg.ThrottleIPLimit,
		ThrottleWindowSec: int64(cfg.ThrottleWindow.Seconds()),
	}
	mux := http.NewServeMux()
	srv.Routes(mux)

	httpServer := &http.Server{Addr: cfg.Addr, Handler: mux}

	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		if err := pool.Run(ctx); err != nil {
			log.Printf("worker pool exited: %v", err)
		}
	}()

	go func() {
		log.Printf("server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received, draining in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
	<-poolDone
	log.Println("shut down gracefully")
}

// aiDriver adapts adapters.AIStreamer to stream.Driver, the narrow
// function shape the Stream Registry invokes per active stream.
func aiDriver(ai adapters.AIStreamer) stream.Driver {
	return func(ctx context.Context, params stream.Params, onChunk func(string)) (string, error) {
		if ai == nil {
			return "", errNoAIConfigured
		}
		req := adapters.AnalysisRequest{
			Sentence:       params.Sentence,
			TargetWord:     params.TargetWord,
			TargetLanguage: params.TargetLanguage,
			NativeLanguage: params.NativeLanguage,
			ContextBefore:  params.ContextBefore,
			ContextAfter:   params.ContextAfter,
		}
		return ai.Stream(ctx, req, onChunk)
	}
}

var errNoAIConfigured = &configError{"AI provider not configured"}

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }
