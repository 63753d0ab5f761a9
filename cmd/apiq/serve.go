package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbarlow/apiq/pkg/llm"
	"github.com/mbarlow/apiq/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the assistant over a WebSocket endpoint",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", defaultAddr(), "listen address")
	rootCmd.AddCommand(serveCmd)
}

func defaultAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newChatClient()
	if err != nil {
		return err
	}

	ix, vs, err := newIndex(ctx)
	if err != nil {
		return err
	}
	defer vs.Close()

	srv := server.New(ix, llm.NewPlanner(client), newExecutor(), llm.NewSummarizer(client))
	return srv.ListenAndServe(serveAddr)
}
