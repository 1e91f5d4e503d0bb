package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ScriptSmith/hadrian-sub004/internal/config"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/ports"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/usecase"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/chunking"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/extractor"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/extractor/pdf"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/extractor/plaintext"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/extractor/xlsx"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/llm/ollama"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/queue/nats"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/repository/postgres"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/resilience"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/storage/localfs"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/vector/qdrant"
)

// App owns the wired object graph shared by the api and worker binaries.
type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	SearchUC  *usecase.FileSearchUseCase
	IngestUC  *usecase.IngestFileUseCase
	ProcessUC *usecase.ProcessFileUseCase
	StoresUC  *usecase.VectorStoreAdminUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	storeRepo := postgres.NewVectorStoreRepository(db)
	if err := storeRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	fileRepo := postgres.NewFileRepository(db)
	memberRepo := postgres.NewMembershipRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.RetryInitialBackoffMs) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.RetryMaxBackoffMs) * time.Millisecond,
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
	})

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	reranker := ollama.NewReranker(ollamaClient, time.Duration(cfg.RerankCooldownSeconds)*time.Second)

	backend := qdrant.New(cfg.QdrantURL, executor)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extract := extractor.NewDispatcher(
		plaintext.NewExtractor(storage),
		pdf.NewExtractor(storage),
		xlsx.NewExtractor(storage),
	)

	access := usecase.NewAccessEvaluator(memberRepo)
	searchUC := usecase.NewFileSearchUseCase(storeRepo, fileRepo, access, embedder, backend, reranker, usecase.SearchConfig{
		DefaultMaxResults:     cfg.SearchMaxResults,
		DefaultThreshold:      cfg.SearchScoreThreshold,
		RerankEnabled:         cfg.RerankEnabled,
		RerankFallbackOnError: cfg.RerankFallbackOnError,
	})
	ingestUC := usecase.NewIngestFileUseCase(storeRepo, fileRepo, storage, queue)
	processUC := usecase.NewProcessFileUseCase(fileRepo, extract, chunker, embedder, backend)
	storesUC := usecase.NewVectorStoreAdminUseCase(storeRepo)

	return &App{
		Config: cfg,
		Queue:  queue,

		SearchUC:  searchUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		StoresUC:  storesUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
