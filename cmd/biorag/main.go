package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/biorag/internal/models"
	"github.com/xhad/biorag/internal/types"
	cfgPkg "github.com/xhad/biorag/pkg/config"
	"github.com/xhad/biorag/pkg/llm"
	"github.com/xhad/biorag/pkg/papers"
	"github.com/xhad/biorag/pkg/processor"
	"github.com/xhad/biorag/pkg/rag"
	"github.com/xhad/biorag/pkg/store"
)

type flags struct {
	ConfigPath string
	PapersDir  string
	Query      string
	QueryType  string
	Analyze    string
	Implement  string
}

func main() {
	_ = godotenv.Load()

	f := parseFlags()

	if err := run(f); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&f.PapersDir, "papers-dir", "", "Directory of papers (.pdf/.txt) to ingest")
	flag.StringVar(&f.Query, "query", "", "Run a single query and exit")
	flag.StringVar(&f.QueryType, "type", "general", "Query type: general, code or research")
	flag.StringVar(&f.Analyze, "analyze", "", "Analyze papers on a topic and exit")
	flag.StringVar(&f.Implement, "implement", "", "Get implementation suggestions for a topic and exit")
	flag.Parse()

	return f
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(f flags) error {
	cfg, err := cfgPkg.LoadConfig(f.ConfigPath)
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

	if f.PapersDir != "" {
		if err := ingest(ctx, manager, f.PapersDir); err != nil {
			return err
		}
	}

	switch {
	case f.Query != "":
		return oneShotQuery(ctx, manager, f.Query, models.ParseQueryType(f.QueryType))
	case f.Analyze != "":
		return oneShotTopic(ctx, manager.AnalyzeTopic, f.Analyze)
	case f.Implement != "":
		return oneShotTopic(ctx, manager.ImplementationSuggestions, f.Implement)
	case f.PapersDir != "":
		return nil
	}

	return interactive(ctx, manager)
}

func ingest(ctx context.Context, manager *rag.Manager, dir string) error {
	files, err := papers.FindPaperFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .pdf or .txt papers found in %s", dir)
	}

	color.Blue("\nIngesting %d papers from %s\n", len(files), dir)
	bar := getProgressBar(len(files), "Ingesting papers...")

	totalChunks := 0
	failed := 0
	for _, file := range files {
		paper, err := papers.LoadPaper(file)
		if err != nil {
			color.Red("\nFailed to load %s: %v", file, err)
			failed++
			bar.Add(1)
			continue
		}

		chunks, err := manager.AddPaper(ctx, paper)
		if err != nil {
			color.Red("\nFailed to add %s: %v", file, err)
			failed++
			bar.Add(1)
			continue
		}

		totalChunks += chunks
		bar.Add(1)
	}
	bar.Finish()

	color.Green("\n✓ Ingested %d papers (%d chunks, %d failed)\n", len(files)-failed, totalChunks, failed)
	return nil
}

func oneShotQuery(ctx context.Context, manager *rag.Manager, question string, queryType models.QueryType) error {
	spinner := getSpinner("Searching knowledge base...")
	answer, err := manager.Query(ctx, question, queryType)
	spinner.Finish()
	fmt.Print("\r")

	if err != nil {
		return err
	}
	fmt.Println(answer.Text)
	return nil
}

func oneShotTopic(ctx context.Context, op func(context.Context, string) (string, error), topic string) error {
	spinner := getSpinner("Analyzing...")
	result, err := op(ctx, topic)
	spinner.Finish()
	fmt.Print("\r")

	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

type historyEntry struct {
	Question  string
	Type      models.QueryType
	Timestamp string
}

func interactive(ctx context.Context, manager *rag.Manager) error {
	color.Cyan("\nBioRAG query system (type 'help' for commands, 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	var history []historyEntry

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit":
			return nil
		case "help":
			printHelp()
			continue
		case "history":
			printHistory(history)
			continue
		case "stats":
			stats, err := manager.Stats(ctx)
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			fmt.Printf("Stored chunks: %d\n", stats.Chunks)
			continue
		}

		question := input
		queryType := models.QueryGeneral
		if rest, ok := strings.CutPrefix(input, "code:"); ok {
			question = strings.TrimSpace(rest)
			queryType = models.QueryCode
		} else if rest, ok := strings.CutPrefix(input, "research:"); ok {
			question = strings.TrimSpace(rest)
			queryType = models.QueryResearch
		}

		stream, err := manager.QueryStream(ctx, question, queryType)
		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("\nAssistant: ")
		for chunk := range stream {
			fmt.Print(chunk)
		}
		fmt.Println()

		history = append(history, historyEntry{
			Question:  question,
			Type:      queryType,
			Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		})
	}

	return nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("- code: <question>      ask questions about code")
	fmt.Println("- research: <question>  research brainstorming")
	fmt.Println("- history               view query history")
	fmt.Println("- stats                 knowledge base statistics")
	fmt.Println("- exit                  end the session")
	fmt.Println("\nAnything else is answered as a general question.")
}

func printHistory(history []historyEntry) {
	if len(history) == 0 {
		fmt.Println("\nNo queries in history.")
		return
	}

	fmt.Println("\nQuery history:")
	for i, entry := range history {
		fmt.Printf("%d. [%s] (%s) %s\n", i+1, entry.Timestamp, entry.Type, entry.Question)
	}
}
