package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbarlow/apiq/pkg/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session that turns questions into API calls",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newChatClient()
	if err != nil {
		return err
	}

	ix, vs, err := newIndex(ctx)
	if err != nil {
		color.Red("Error accessing vector database: %v", err)
		fmt.Println("Please run setup first: apiq setup <docs_dir>")
		return err
	}
	defer vs.Close()

	count, err := ix.Count(ctx)
	if err != nil {
		color.Red("Error accessing vector database: %v", err)
		fmt.Println("Please run setup first: apiq setup <docs_dir>")
		return err
	}
	if count == 0 {
		color.Yellow("Warning: no API documentation found in the vector database.")
		fmt.Println("Please run setup first: apiq setup <docs_dir>")
		return nil
	}

	planner := llm.NewPlanner(client)
	summarizer := llm.NewSummarizer(client)
	exec := newExecutor()

	color.Cyan("API Assistant Chat")
	fmt.Println("Type your queries in natural language, and I'll translate them to API calls.")
	fmt.Println("Type 'exit' or 'quit' to end the session.")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if q := strings.ToLower(query); q == "exit" || q == "quit" {
			fmt.Println("\nGoodbye!")
			break
		}

		// Each stage failure prints and returns control to the prompt.
		spinner := getSpinner(" Thinking...")
		docContext, err := ix.Retrieve(ctx, query)
		spinner.Finish()
		if err != nil {
			color.Red("Error retrieving documentation: %v", err)
			continue
		}
		if docContext == "" {
			fmt.Println("I don't have any relevant API documentation for that request.")
			continue
		}

		plan, err := planner.Plan(ctx, query, docContext)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		switch p := plan.(type) {
		case llm.ReplyPlan:
			fmt.Println(p.Text)

		case llm.CallPlan:
			descriptor, err := json.MarshalIndent(p.Call, "", "  ")
			if err != nil {
				color.Red("Error: %v", err)
				continue
			}
			fmt.Println("Planning to make this API call:")
			fmt.Println(string(descriptor))

			userPrompt("\nExecute this API call? [Y/n]: ")
			if !scanner.Scan() {
				return nil
			}
			confirm := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if confirm != "" && confirm != "y" && confirm != "yes" {
				fmt.Println("API call cancelled.")
				continue
			}

			execSpinner := getSpinner(" Executing API call...")
			result := exec.Execute(ctx, p.Call)
			execSpinner.Finish()

			summary, err := summarizer.Summarize(ctx, result, query)
			if err != nil {
				color.Red("Error summarizing response: %v", err)
				continue
			}
			color.Green("\nResult:")
			fmt.Println(summary)
		}
	}

	return nil
}
