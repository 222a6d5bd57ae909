// Copyright 2025 Optim Finance
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
	"sort"
	"strings"
	"time"

	"github.com/optimfinance/kbase"
	"github.com/optimfinance/kbase/config"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/ingestion"
	"github.com/optimfinance/kbase/reembed"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "kbase",
		Usage: "Knowledge base for the Optim Finance assistant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "kbase.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest documents into the knowledge base",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category tag applied to the documents",
					},
					&cli.StringFlag{
						Name:  "intent",
						Usage: "Intent tag applied to the documents",
					},
					&cli.StringFlag{
						Name:  "profile",
						Usage: "Chunking profile name",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Override the profile's chunk size in characters",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Override the profile's chunk overlap in characters",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the knowledge base",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode (semantic, keyword, hybrid)",
						Value: "hybrid",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of results (0 uses the configured default)",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict results to one category",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question and generate a grounded answer",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show knowledge base statistics",
				Action: statsCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and all its chunks",
				ArgsUsage: "FILENAME",
				Action:    deleteCommand,
			},
			{
				Name:   "clear",
				Usage:  "Remove every chunk from the knowledge base",
				Action: clearCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate the embeddings of every stored chunk",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := c.String("log-level")
	if levelStr == "" {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		levelStr = cfg.Logging.Level
	}

	var level slog.Level
	switch strings.ToLower(levelStr) {
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

func openDatabase(c *cli.Context) (*kbase.Database, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := kbase.NewDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return db, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := &ingestion.IngestOptions{
		Category:  c.String("category"),
		Intent:    c.String("intent"),
		Profile:   c.String("profile"),
		ChunkSize: c.Int("chunk-size"),
		Overlap:   c.Int("overlap"),
	}

	files := c.Args().Slice()
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionShowCount(),
	)

	total := 0
	for _, file := range files {
		count, err := db.Ingest(context.Background(), file, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("failed to ingest %s: %w", file, err)
		}
		total += count
		bar.Add(1)
	}
	bar.Finish()

	fmt.Fprintf(os.Stderr, "\nIngested %d files (%d chunks)\n", len(files), total)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	mode, err := core.ParseSearchMode(c.String("mode"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	response := db.Search(context.Background(), query, mode, c.Int("top-k"), c.String("category"))

	fmt.Printf("Query:   %s\n", response.Query)
	fmt.Printf("Intent:  %s\n", response.Intent)
	fmt.Printf("Results: %d\n\n", response.NumResults)

	for i, result := range response.Results {
		fmt.Printf("%d. %s (score %.3f)\n", i+1, result.Chunk.Title, result.Score)
		fmt.Printf("   file: %s  category: %s\n", result.Chunk.Filename, result.Chunk.Category)
		fmt.Printf("   %s\n\n", result.Chunk.Content)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("a question is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	answer, response, err := db.Ask(context.Background(), question)
	if err != nil {
		return err
	}

	fmt.Printf("Intent: %s\n\n", response.Intent)
	fmt.Println(answer.Response)
	if len(response.Results) > 0 {
		fmt.Println("\nSources:")
		for _, result := range response.Results {
			fmt.Printf("  - %s (%s)\n", result.Chunk.Title, result.Chunk.Filename)
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Chunks: %d\n", stats.TotalChunks)
	fmt.Printf("Files:  %d\n", stats.TotalFiles)

	fmt.Println("\nCategories:")
	for _, name := range sortedKeys(stats.Categories) {
		fmt.Printf("  %-20s %d\n", name, stats.Categories[name])
	}

	fmt.Println("\nFile types:")
	for _, name := range sortedKeys(stats.FileTypes) {
		fmt.Printf("  %-20s %d\n", name, stats.FileTypes[name])
	}

	fmt.Println("\nDocuments:")
	for _, name := range sortedKeys(stats.Filenames) {
		fmt.Printf("  %-40s %d chunks\n", name, stats.Filenames[name])
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	filename := c.Args().First()
	if filename == "" {
		return fmt.Errorf("a filename is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	existed, err := db.DeleteDocument(context.Background(), filename)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintf(os.Stderr, "No chunks found for %s\n", filename)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Deleted %s\n", filename)
	return nil
}

func clearCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		fmt.Fprint(os.Stderr, "This removes every chunk from the knowledge base. Type 'yes' to continue: ")
		var confirm string
		fmt.Scanln(&confirm)
		if strings.ToLower(strings.TrimSpace(confirm)) != "yes" {
			fmt.Fprintln(os.Stderr, "Aborted")
			return nil
		}
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Knowledge base cleared")
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:  c.Int("batch-size"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Reembed(context.Background(), reembedConfig, os.Stderr); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
