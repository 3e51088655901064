package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabfab/textbook-rag/config"
	"github.com/fabfab/textbook-rag/content"
	"github.com/fabfab/textbook-rag/database"
	"github.com/fabfab/textbook-rag/embeddings"
	"github.com/fabfab/textbook-rag/indexer"
	"github.com/fabfab/textbook-rag/llm"
	"github.com/fabfab/textbook-rag/query"
	"github.com/fabfab/textbook-rag/rag"
	"github.com/fabfab/textbook-rag/retrieval"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "index":
		indexCmd(cfg, logger, os.Args[2:])
	case "reindex":
		reindexCmd(cfg, logger, os.Args[2:])
	case "delete":
		deleteCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "stats":
		statsCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func indexCmd(cfg config.Settings, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	contentDir := flags.String("dir", "docs", "path to the textbook content directory")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse index flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, store := mustVectorStore(ctx, cfg, logger)
	defer pool.Close()

	embedder, err := embeddings.NewEmbedder(cfg, logger)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	ix := indexer.New(store, embedder, logger)
	chunker := content.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)
	logger.Printf("indexing content from %s using %s embeddings", *contentDir, strings.ToUpper(cfg.Provider))

	result, err := ix.IndexDirectory(ctx, *contentDir, cfg.DocsBaseURL, chunker)
	if err != nil {
		logger.Fatalf("indexing failed: %v", err)
	}
	printResult(result)
	if result.FailedChunks > 0 {
		os.Exit(1)
	}
}

func reindexCmd(cfg config.Settings, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("reindex", flag.ExitOnError)
	contentDir := flags.String("dir", "docs", "path to the textbook content directory")
	chapter := flags.String("chapter", "", "chapter id to reindex")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse reindex flags: %v", err)
	}
	if *chapter == "" {
		logger.Fatal("reindex requires -chapter")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, store := mustVectorStore(ctx, cfg, logger)
	defer pool.Close()

	embedder, err := embeddings.NewEmbedder(cfg, logger)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	chunker := content.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)
	chunks, err := content.ParseDirectory(*contentDir, cfg.DocsBaseURL, chunker, logger)
	if err != nil {
		logger.Fatalf("parse content: %v", err)
	}

	var chapterChunks []content.Chunk
	for _, chunk := range chunks {
		if chunk.Metadata.ChapterID == *chapter {
			chapterChunks = append(chapterChunks, chunk)
		}
	}
	if len(chapterChunks) == 0 {
		logger.Fatalf("no content found for chapter %s under %s", *chapter, *contentDir)
	}

	ix := indexer.New(store, embedder, logger)
	result, err := ix.ReindexChapter(ctx, *chapter, chapterChunks)
	if err != nil {
		logger.Fatalf("reindex failed: %v", err)
	}
	printResult(result)
}

func deleteCmd(cfg config.Settings, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("delete", flag.ExitOnError)
	chapter := flags.String("chapter", "", "chapter id to delete")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse delete flags: %v", err)
	}
	if *chapter == "" {
		logger.Fatal("delete requires -chapter")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, store := mustVectorStore(ctx, cfg, logger)
	defer pool.Close()

	deleted, err := store.DeleteByFilter(ctx, "chapter_id", *chapter)
	if err != nil {
		logger.Fatalf("delete failed: %v", err)
	}
	fmt.Printf("Deleted %d chunks for chapter %s\n", deleted, *chapter)
}

func askCmd(cfg config.Settings, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to ask about the textbook")
	selected := flags.String("selected", "", "text the reader selected on the page")
	chapter := flags.String("chapter", "", "restrict retrieval to one chapter")
	topK := flags.Int("top-k", cfg.TopK, "number of chunks to retrieve")
	threshold := flags.Float64("threshold", cfg.ScoreThreshold, "minimum similarity score")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}
	if strings.TrimSpace(*question) == "" {
		logger.Fatal("ask requires a question")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, store := mustVectorStore(ctx, cfg, logger)
	defer pool.Close()

	embedder, err := embeddings.NewEmbedder(cfg, logger)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}
	chatClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	processor := query.NewProcessor(embedder, true, logger)
	retriever := retrieval.New(store, processor, logger)
	builder := rag.NewContextBuilder(0, 0, logger)
	generator := rag.NewGenerator(chatClient, builder, logger)
	service := rag.NewService(retriever, generator, logger)

	resp, err := service.Process(ctx, rag.Request{
		Query:          *question,
		SelectedText:   *selected,
		ChapterID:      *chapter,
		TopK:           *topK,
		ScoreThreshold: *threshold,
	})
	if err != nil {
		logger.Fatalf("ask failed: %v", err)
	}

	fmt.Println(resp.Answer)
	if resp.IsFallback {
		fmt.Println("\n(no matching textbook content was found)")
		return
	}
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range resp.Sources {
			fmt.Printf("  [%d] %s - %s (%.2f) %s\n", i+1, src.Title, src.SectionTitle, src.RelevanceScore, src.PageURL)
		}
	}
}

func statsCmd(cfg config.Settings, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse stats flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	store := database.NewVectorStore(pool, cfg.CollectionName)
	exists, err := store.CollectionExists(ctx)
	if err != nil {
		logger.Fatalf("check collection: %v", err)
	}
	if !exists {
		fmt.Printf("Collection %s does not exist; run index first\n", cfg.CollectionName)
		return
	}

	count, err := store.Count(ctx)
	if err != nil {
		logger.Fatalf("count points: %v", err)
	}
	fmt.Printf("Collection: %s\n", cfg.CollectionName)
	fmt.Printf("Indexed chunks: %d\n", count)
	fmt.Printf("Vector dimension: %d\n", cfg.ActiveVectorDimension())
	fmt.Printf("Provider: %s\n", cfg.Provider)
}

// mustVectorStore connects to Postgres and makes sure the collection schema
// exists.
func mustVectorStore(ctx context.Context, cfg config.Settings, logger *log.Logger) (*pgxpool.Pool, *database.VectorStore) {
	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}

	store := database.NewVectorStore(pool, cfg.CollectionName)
	if err := store.EnsureCollection(ctx, cfg.ActiveVectorDimension()); err != nil {
		pool.Close()
		logger.Fatalf("ensure collection: %v", err)
	}
	return pool, store
}

func printResult(result indexer.Result) {
	fmt.Println("Indexing complete:")
	fmt.Printf("  Total chunks:   %d\n", result.TotalChunks)
	fmt.Printf("  Indexed chunks: %d\n", result.IndexedChunks)
	fmt.Printf("  Failed chunks:  %d\n", result.FailedChunks)
	fmt.Printf("  Chapters:       %s\n", strings.Join(result.Chapters, ", "))
	for _, msg := range result.Errors {
		fmt.Printf("  Error: %s\n", msg)
	}
}

func printUsage() {
	fmt.Println("Usage: textbook-rag <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  index    parse and index textbook content")
	fmt.Println("  reindex  reindex a single chapter (-chapter <id>)")
	fmt.Println("  delete   delete a chapter's indexed chunks (-chapter <id>)")
	fmt.Println("  ask      ask a question about the textbook")
	fmt.Println("  stats    show collection statistics")
}
