// Copyright 2026 Veridict Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/veridict/caselaw"
	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/embed"
	"github.com/veridict/caselaw/ingest"
	"github.com/veridict/caselaw/web"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "caselaw",
		Usage: "Staged retrieval engine for legal case law",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP search API",
				Action: serveCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address for the HTTP server",
						Value: ":8080",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Run a single search from the command line",
				Action:    searchCommand,
				ArgsUsage: "<query>",
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
				),
			},
			{
				Name:      "seed",
				Usage:     "Load preprocessed case analyses from a JSON file",
				Action:    seedCommand,
				ArgsUsage: "<analyses.json>",
				Flags:     databaseFlags(),
			},
			{
				Name:   "embed",
				Usage:  "Backfill stored factor vectors for analyzed cases",
				Action: embedCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of cases to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N cases",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate vectors even when already stored",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			EnvVars: []string{"CASELAW_DB"},
			Value:   "./caselaw_db",
		},
		&cli.StringFlag{
			Name:    "ai-host",
			Usage:   "OpenAI-compatible service host URL",
			EnvVars: []string{"CASELAW_AI_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"CASELAW_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "scorer-model",
			Usage:   "Scoring and decomposition model name",
			EnvVars: []string{"CASELAW_SCORER_MODEL"},
		},
	}
}

func openDatabase(c *cli.Context) (*caselaw.Database, error) {
	opts := []ai.ConfigOption{}
	if host := c.String("ai-host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("scorer-model"); model != "" {
		opts = append(opts, ai.WithScorerModel(model))
	}

	db, err := caselaw.NewDatabase(c.String("db"), caselaw.WithAIConfig(ai.NewConfig(opts...)))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func serveCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Release()

	// The long-lived Searcher serves all requests, avoiding a fresh
	// worker pool per call.
	server, err := web.NewServer(searcher, db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(c.String("addr"))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	resp, err := db.Search(context.Background(), query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if resp.Partial {
		fmt.Println("(partial results)")
	}
	fmt.Printf("Found %d hits\n", resp.Count)
	for i, hit := range resp.Results {
		name := string(hit.CaseID)
		citation := ""
		if hit.Case != nil {
			name = hit.Case.Name
			citation = hit.Case.Citation
		}
		fmt.Printf("%d: %s, %s [%0.3f] (%s", i+1, name, citation, hit.Score, hit.Stage)
		if hit.HoldingDirection != "" {
			fmt.Printf(", %s", hit.HoldingDirection)
		}
		fmt.Println(")")
		for _, cc := range hit.CitingCases {
			fmt.Printf("   cited by %s, %s\n", cc.Name, cc.Citation)
		}
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("exactly one analyses file is required")
	}

	analyses, err := ingest.LoadAnalysisFile(c.Args().First())
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	if err := pipeline.Ingest(context.Background(), analyses...); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	pipeline.Wait()

	fmt.Fprintf(os.Stderr, "Loaded %d case analyses\n", len(analyses))
	return nil
}

func embedCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	config := &embed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Force:          c.Bool("force"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	backfiller := db.NewBackfiller(config, os.Stderr)
	if err := backfiller.Run(context.Background()); err != nil {
		return fmt.Errorf("vector backfill failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
