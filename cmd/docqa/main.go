package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/w-h-a/docqa"
	"github.com/w-h-a/docqa/embedder"
	googleembedder "github.com/w-h-a/docqa/embedder/google"
	openaiembedder "github.com/w-h-a/docqa/embedder/openai"
	"github.com/w-h-a/docqa/generator"
	anthropicgenerator "github.com/w-h-a/docqa/generator/anthropic"
	googlegenerator "github.com/w-h-a/docqa/generator/google"
	openaigenerator "github.com/w-h-a/docqa/generator/openai"
	httpserver "github.com/w-h-a/docqa/server/http"
)

var (
	cfg struct {
		// Embedding config
		EmbedderProvider string `help:"Embedding provider: openai or google" default:"openai"`
		EmbedderKey      string `help:"API key for the embedding provider" default:""`
		EmbedderModel    string `help:"Model identifier for the embedding provider" default:"text-embedding-ada-002"`

		// Generation config
		GeneratorProvider string  `help:"Chat provider: openai, anthropic, or google" default:"openai"`
		GeneratorKey      string  `help:"API key for the chat provider" default:""`
		GeneratorModel    string  `help:"Model identifier for the chat provider" default:"gpt-3.5-turbo"`
		Temperature       float32 `help:"Generation temperature" default:"0.1"`
		MaxTokens         int     `help:"Maximum tokens per answer" default:"1000"`

		// Collection config
		PersistDir string `help:"Directory for the persistent collection store" default:"./docqa_db"`
		Collection string `help:"Collection name" default:"qa_documents"`

		// Pipeline config
		ChunkSize    int `help:"Chunk size in characters" default:"1000"`
		ChunkOverlap int `help:"Overlap between consecutive chunks" default:"200"`
		TopK         int `help:"Number of chunks retrieved per question" default:"4"`
		MemoryWindow int `help:"Conversation turns kept for context" default:"10"`

		// Server config
		Serve bool   `help:"Run the HTTP server instead of the REPL" default:"false"`
		Addr  string `help:"HTTP listen address" default:":8080"`
	}
)

func main() {
	_ = godotenv.Load()
	_ = kong.Parse(&cfg)

	ctx := context.Background()

	if len(cfg.EmbedderKey) == 0 {
		cfg.EmbedderKey = os.Getenv("OPENAI_API_KEY")
	}
	if len(cfg.GeneratorKey) == 0 {
		cfg.GeneratorKey = os.Getenv("OPENAI_API_KEY")
	}

	session, err := docqa.NewSession(
		docqa.WithEmbedder(newEmbedder()),
		docqa.WithGenerator(newGenerator()),
		docqa.WithPersistDir(cfg.PersistDir),
		docqa.WithCollection(cfg.Collection),
		docqa.WithChunkSize(cfg.ChunkSize),
		docqa.WithChunkOverlap(cfg.ChunkOverlap),
		docqa.WithTopK(cfg.TopK),
		docqa.WithMemoryWindow(cfg.MemoryWindow),
		docqa.WithTemperature(cfg.Temperature),
		docqa.WithMaxTokens(cfg.MaxTokens),
	)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	defer session.Close()

	if cfg.Serve {
		if err := httpserver.NewServer(session, cfg.Addr).Run(); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
		return
	}

	repl(ctx, session)
}

func newEmbedder() embedder.Embedder {
	opts := []embedder.Option{
		embedder.WithApiKey(cfg.EmbedderKey),
		embedder.WithModel(cfg.EmbedderModel),
	}

	switch cfg.EmbedderProvider {
	case "google":
		return googleembedder.NewEmbedder(opts...)
	default:
		return openaiembedder.NewEmbedder(opts...)
	}
}

func newGenerator() generator.Generator {
	opts := []generator.Option{
		generator.WithApiKey(cfg.GeneratorKey),
		generator.WithModel(cfg.GeneratorModel),
		generator.WithTemperature(cfg.Temperature),
		generator.WithMaxTokens(cfg.MaxTokens),
	}

	switch cfg.GeneratorProvider {
	case "anthropic":
		return anthropicgenerator.NewGenerator(opts...)
	case "google":
		return googlegenerator.NewGenerator(opts...)
	default:
		return openaigenerator.NewGenerator(opts...)
	}
}

func repl(ctx context.Context, session *docqa.Session) {
	fmt.Println("docqa. Ask a question, or /help for commands.")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := command(ctx, session, line); quit {
				return
			}
			continue
		}

		answer := session.Ask(ctx, line)
		if !answer.Success {
			fmt.Printf("error: %s\n", answer.Error)
			continue
		}

		fmt.Println(answer.Answer)
		for _, src := range answer.Sources {
			fmt.Printf("  [%d] %s\n", src.Rank, src.Excerpt)
		}
	}
}

func command(ctx context.Context, session *docqa.Session, line string) bool {
	fields := strings.Fields(line)

	switch fields[0] {
	case "/help":
		fmt.Println("/ingest <files...>  index documents")
		fmt.Println("/dir <path>         index a directory")
		fmt.Println("/info               collection info")
		fmt.Println("/clear              clear the collection")
		fmt.Println("/reset              clear the conversation")
		fmt.Println("/memory             memory summary")
		fmt.Println("/temp <value>       set temperature")
		fmt.Println("/tokens <n>         set max tokens")
		fmt.Println("/quit               exit")
	case "/ingest":
		if len(fields) < 2 {
			fmt.Println("usage: /ingest <files...>")
			return false
		}
		report(session.IngestFiles(ctx, fields[1:]))
	case "/dir":
		if len(fields) != 2 {
			fmt.Println("usage: /dir <path>")
			return false
		}
		report(session.IngestDirectory(ctx, fields[1]))
	case "/info":
		info, err := session.CollectionInfo(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Printf("collection %q holds %d records\n", info.Collection, info.Records)
	case "/clear":
		if err := session.ClearCollection(ctx); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Println("collection cleared")
	case "/reset":
		session.ClearConversation()
		fmt.Println("conversation cleared")
	case "/memory":
		summary := session.MemorySummary()
		fmt.Printf("%d of %d turns held\n", summary.Turns, summary.Window)
	case "/temp":
		if len(fields) != 2 {
			fmt.Println("usage: /temp <value>")
			return false
		}
		v, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		session.SetTemperature(float32(v))
	case "/tokens":
		if len(fields) != 2 {
			fmt.Println("usage: /tokens <n>")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		session.SetMaxTokens(n)
	case "/quit", "/exit":
		return true
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}

	return false
}

func report(result docqa.IngestResult) {
	fmt.Printf("indexed %d chunks\n", result.Chunks)
	for _, skipped := range result.Skipped {
		fmt.Printf("  skipped %s: %s\n", skipped.Path, skipped.Reason)
	}
}
