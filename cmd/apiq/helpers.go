package main

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/mbarlow/apiq/internal/types"
	"github.com/mbarlow/apiq/pkg/executor"
	"github.com/mbarlow/apiq/pkg/index"
	"github.com/mbarlow/apiq/pkg/llm"
	"github.com/mbarlow/apiq/pkg/store"
)

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
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

func newChatClient() (*llm.Client, error) {
	return llm.NewWithConfig(llm.ClientConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
	})
}

// newIndex wires the embedder, vector store and chunker into an index.
// The caller owns the returned store and must Close it.
func newIndex(ctx context.Context) (*index.Index, types.VectorStore, error) {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbedModel,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, nil, err
	}

	vs, err := store.NewWithConfig(ctx, store.Config{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
	})
	if err != nil {
		return nil, nil, err
	}

	ix, err := index.NewWithConfig(index.Config{
		ChunkSize:  cfg.Chunker.ChunkSize,
		Overlap:    cfg.Chunker.Overlap,
		TopK:       cfg.Retrieval.TopK,
		Extensions: cfg.Docs.Extensions,
	}, embedder, vs)
	if err != nil {
		vs.Close()
		return nil, nil, err
	}

	return ix, vs, nil
}

func newExecutor() *executor.Executor {
	return executor.NewWithConfig(executor.Config{
		BaseURL: cfg.API.BaseURL,
		Key:     cfg.API.Key,
		Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second,
	})
}
