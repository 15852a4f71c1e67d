// Package app assembles the service graph.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/config"
	"github.com/kapu/lessonlens/internal/server"
	"github.com/kapu/lessonlens/internal/service"
	"github.com/kapu/lessonlens/internal/service/ai"
	"github.com/kapu/lessonlens/internal/service/cache"
	"github.com/kapu/lessonlens/internal/service/dedup"
	"github.com/kapu/lessonlens/internal/service/history"
	"github.com/kapu/lessonlens/internal/service/normalizer"
	"github.com/kapu/lessonlens/internal/service/transcript"
)

// Container holds the assembled pipeline plus the teardown stack.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Handler http.Handler

	closers []func()
}

// Close tears down services in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all infrastructure services. Redis and Postgres are
// optional: without Redis the pipeline runs with in-process deduplication
// and no transcript cache, without Postgres no history is kept. All
// heavy-weight initialization happens here so main stays a thin shell.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Cache and deduplication
	var (
		cacheSvc      *cache.Service
		inflightStore dedup.Store
	)
	if cfg.Redis.Enabled() {
		cacheSvc, err = cache.NewService(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
		inflightStore = dedup.NewRedisStore(cacheSvc, logger)
	} else {
		logger.Info("Redis not configured, using in-process deduplication")
		inflightStore = dedup.NewMemoryStore()
	}

	// History store
	var historyStore *history.Store
	if cfg.Postgres.Enabled() {
		historyStore, err = history.NewStore(history.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		closers = append(closers, func() {
			_ = historyStore.Close()
		})
	} else {
		logger.Info("Postgres not configured, analysis history disabled")
	}

	// Transcript acquisition ladder: captions first, local STT fallback
	captionFetcher := transcript.NewCaptionFetcher(cfg.Transcript.Languages, logger)
	speechTranscriber := transcript.NewSpeechTranscriber(transcript.SpeechConfig{
		YtDlpBinary:  cfg.Transcript.YtDlpBinary,
		FFmpegBinary: cfg.Transcript.FFmpegBinary,
		WhisperBin:   cfg.Transcript.WhisperBin,
		WhisperModel: cfg.Transcript.WhisperModel,
	}, logger)
	transcriptSvc := transcript.NewService(
		[]transcript.Strategy{captionFetcher, speechTranscriber},
		cacheSvc, logger)

	// AI stack
	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:       cfg.Gemini.APIKey,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		DefaultGeminiModel: cfg.Gemini.Model,
		DefaultOpenAIModel: cfg.OpenAI.Model,
		EnableFallback:     cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	engine := service.NewEngine(modelManager, normalizer.New(logger), cfg.Analysis.Timeout, logger)

	deps := service.AnalyzerDeps{
		Transcripts:      transcriptSvc,
		Engine:           engine,
		Inflight:         inflightStore,
		History:          historyStore,
		TranscriptBudget: cfg.Analysis.TranscriptBudget,
	}

	// Metadata is optional enrichment; left unset, placeholders are used.
	if cfg.YouTube.APIKey != "" {
		metadataSvc, mdErr := service.NewMetadataService(cfg.YouTube.APIKey, logger)
		if mdErr != nil {
			logger.Warn("Failed to initialize metadata service (optional feature)", zap.Error(mdErr))
		} else {
			deps.Metadata = metadataSvc
		}
	} else {
		logger.Info("YouTube API key not configured, using placeholder metadata")
	}

	analyzer := service.NewAnalyzer(deps, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Handler: server.NewRouter(analyzer, historyStore, logger),
		closers: closers,
	}, nil
}
