package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbarlow/apiq/pkg/index"
	"github.com/mbarlow/apiq/pkg/scraper"
)

var setupDocsURL string

var setupCmd = &cobra.Command{
	Use:   "setup [docs_dir]",
	Short: "Process API documentation and build the embedding index",
	Long: `Reads API documentation from a local directory (or a hosted docs site
with --url), splits it into chunks, embeds each chunk and stores the
vectors so the chat command can ground its answers on them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupDocsURL, "url", "", "documentation site to scrape instead of a local directory")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	docsDir := "api_docs"
	if len(args) > 0 {
		docsDir = args[0]
	}

	color.Cyan("Setting up API assistant")
	fmt.Println("\nThis will process your API documentation and create embeddings for search.")
	fmt.Println("Make sure Ollama is installed and running with your chosen model.")

	client, err := newChatClient()
	if err != nil {
		return err
	}
	if err := client.CheckModel(ctx); err != nil {
		color.Red("\nError: model %q not found in Ollama.", cfg.LLM.Model)
		fmt.Println("Please make sure Ollama is installed and running:")
		fmt.Println("1. Install from https://ollama.com/")
		fmt.Printf("2. Run: ollama pull %s\n", cfg.LLM.Model)
		return err
	}

	ix, vs, err := newIndex(ctx)
	if err != nil {
		return err
	}
	defer vs.Close()

	var count int
	if setupDocsURL != "" {
		count, err = ingestRemote(ctx, ix)
	} else {
		if _, statErr := os.Stat(docsDir); statErr != nil {
			color.Red("Error: documentation directory %q not found.", docsDir)
			return statErr
		}
		color.Blue("\nInitializing embeddings from API documentation...")
		spinner := getSpinner(" Embedding documentation chunks...")
		count, err = ix.Ingest(ctx, docsDir)
		spinner.Finish()
	}
	if err != nil {
		return err
	}

	if count > 0 {
		color.Green("\nSetup complete! Added %d document chunks to the vector database.", count)
		fmt.Println("\nYou can now run the chat interface with:")
		fmt.Println("apiq chat")
	} else {
		color.Red("No documentation files were processed. Please check your docs directory.")
	}
	return nil
}

func ingestRemote(ctx context.Context, ix *index.Index) (int, error) {
	var scrapeCount int32
	s, err := scraper.NewWithConfig(scraper.Config{
		BaseURL:           setupDocsURL,
		MaxDepth:          cfg.Scraper.MaxDepth,
		RateLimit:         cfg.Scraper.RateLimit,
		IgnorePatterns:    cfg.Scraper.IgnorePatterns,
		AllowedExtensions: cfg.Scraper.AllowedExtensions,
		OnProgress: func(string) {
			atomic.AddInt32(&scrapeCount, 1)
		},
	})
	if err != nil {
		return 0, err
	}

	bar := getProgressBar(-1, " Scraping documentation...")
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				bar.Set(int(atomic.LoadInt32(&scrapeCount)))
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()

	docs, err := s.Scrape(ctx, setupDocsURL)
	close(done)
	bar.Finish()
	if err != nil {
		return 0, err
	}
	color.Green("✓ Scraped %d documents", len(docs))

	spinner := getSpinner(" Embedding documentation chunks...")
	count, err := ix.IngestDocuments(ctx, docs)
	spinner.Finish()
	return count, err
}
