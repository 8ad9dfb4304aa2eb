package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"bookshield/internal/chunker"
	"bookshield/internal/config"
	"bookshield/internal/domain"
	"bookshield/internal/embedding"
	embgemini "bookshield/internal/embedding/gemini"
	"bookshield/internal/embedding/openai"
	"bookshield/internal/embedding/tfidf"
	"bookshield/internal/generate"
	gengemini "bookshield/internal/generate/gemini"
	idxmemory "bookshield/internal/index/memory"
	"bookshield/internal/index/qdrant"
	"bookshield/internal/retriever"
	"bookshield/internal/server"
	"bookshield/internal/service"
	stmemory "bookshield/internal/store/memory"
	"bookshield/internal/store/sqlite"
	"bookshield/internal/summarizer"
)

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "bookshield",
		Short: "Spoiler-safe question answering for books",
		Long: `bookshield answers questions about a book using only the chapters
the reader has already finished. Nothing past the reader's progress is
ever retrieved, cited or summarized.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(serveCmd())
	root.AddCommand(ingestCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			restored, err := svc.WarmStart(cmd.Context())
			if err != nil {
				return err
			}
			if restored > 0 {
				log.Printf("restored %d books from store", restored)
			}
			srv := server.New(svc, cfg.Server.AllowOrigin)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(cfg.Server.Addr)
			}()
			log.Printf("listening on %s", cfg.Server.Addr)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
			case <-stop:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func ingestCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "ingest <book_id> <file>",
		Short: "Upload a book's text to a running server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, path := args[0], args[1]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			url := fmt.Sprintf("%s/api/books/%s", addr, bookID)
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, f)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "text/plain")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("ingest failed (%s): %s", resp.Status, body)
			}
			fmt.Printf("%s\n", body)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "server base URL")
	return cmd
}

func loadConfig() (*config.AppConfig, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	log.Printf("using config %s", path)
	return cfg, nil
}

func buildService(ctx context.Context, cfg *config.AppConfig) (*service.Service, error) {
	factory, err := embedderFactory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedders := embedding.NewRegistry(factory)

	var idx domain.Index
	switch cfg.Index.Type {
	case "", "memory":
		idx = idxmemory.NewIndex()
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			return nil, fmt.Errorf("index type %q requires a qdrant section", cfg.Index.Type)
		}
		idx = qdrant.NewIndex(qdrant.Config{
			URL:              cfg.Index.Qdrant.URL,
			APIKey:           cfg.Index.Qdrant.APIKey,
			CollectionPrefix: cfg.Index.Qdrant.CollectionPrefix,
			Timeout:          time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown index type %q", cfg.Index.Type)
	}

	var store domain.ChunkStore
	switch cfg.Store.Type {
	case "", "memory":
		store = stmemory.NewStore()
	case "sqlite":
		if cfg.Store.SQLite == nil {
			return nil, fmt.Errorf("store type %q requires a sqlite section", cfg.Store.Type)
		}
		store, err = sqlite.NewStore(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}

	completer, err := gengemini.NewCompleter(ctx, cfg.Generator.Model)
	if err != nil {
		return nil, err
	}

	chk := chunker.NewChapterChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences, cfg.Chunker.MinChapterChars)
	ret := retriever.New(embedders, idx, store, cfg.Retriever.TopK)
	gen := generate.New(completer, cfg.Generator.MaxRetries)
	sum := summarizer.NewFrequencySummarizer()

	return service.New(chk, store, embedders, idx, ret, gen, sum, cfg.Recap.MaxSentences), nil
}

func embedderFactory(ctx context.Context, cfg *config.AppConfig) (embedding.Factory, error) {
	switch cfg.Embedder.Type {
	case "", "tfidf":
		return func() domain.Embedder { return tfidf.NewEmbedder() }, nil
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("embedder type %q requires an openai section", cfg.Embedder.Type)
		}
		oc := openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		}
		// Fail fast on a missing key instead of on the first request.
		if _, err := openai.NewClient(oc); err != nil {
			return nil, err
		}
		return func() domain.Embedder {
			c, _ := openai.NewClient(oc)
			return c
		}, nil
	case "gemini":
		model := ""
		if cfg.Embedder.Gemini != nil {
			model = cfg.Embedder.Gemini.Model
		}
		// One client, one embedder instance per registry slot.
		emb, err := embgemini.NewEmbedder(ctx, model)
		if err != nil {
			return nil, err
		}
		return func() domain.Embedder { return emb.Clone() }, nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}
}
