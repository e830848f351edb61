package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/xhad/biorag/internal/types"
	cfgPkg "github.com/xhad/biorag/pkg/config"
	"github.com/xhad/biorag/pkg/fetcher"
	"github.com/xhad/biorag/pkg/llm"
	"github.com/xhad/biorag/pkg/processor"
	"github.com/xhad/biorag/pkg/rag"
	"github.com/xhad/biorag/pkg/store"
	"github.com/xhad/biorag/server"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	ctx := context.Background()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbeddingModel,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	var queryEmbedder types.Embedder = embedder
	if cfg.LLM.CacheDir != "" {
		queryEmbedder, err = llm.NewCachingEmbedder(embedder, cfg.LLM.CacheDir)
		if err != nil {
			return fmt.Errorf("failed to initialize embedding cache: %v", err)
		}
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize:   cfg.Processor.MaxChunkSize,
		ChunkOverlap:   cfg.Processor.ChunkOverlap,
		MinChunkLength: cfg.Processor.MinChunkLength,
	})

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
		TopK:       cfg.Database.TopK,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}
	defer vectorStore.Close()

	manager := rag.NewManager(rag.ManagerConfig{
		TopK:      cfg.Database.TopK,
		BatchSize: cfg.Database.BatchSize,
	}, &proc, queryEmbedder, vectorStore, chatEngine)

	contentFetcher := fetcher.NewWithConfig(fetcher.FetcherConfig{
		RateLimit: cfg.Fetcher.RateLimit,
		Timeout:   time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second,
	})

	srv := server.NewServer(server.Config{
		Port:           cfg.Server.Port,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	}, manager, contentFetcher)

	return srv.ListenAndServe()
}
