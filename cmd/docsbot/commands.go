package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vahanai/docsbot/internal/analytics"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the documentation assistant a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"message": question}
		if session != "" {
			body["session_id"] = session
		}
		resp, err := client.post(cmd.Context(), "/api/chat", body)
		if err != nil {
			return err
		}

		var result struct {
			Response  string `json:"response"`
			SessionID string `json:"session_id"`
			Source    string `json:"source"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Response)
		if result.Source != "" {
			fmt.Fprintln(os.Stderr, colorize(colorCyan, "source: "+result.Source))
		}
		if session == "" {
			// Surface the generated id so follow-up questions can reuse it.
			fmt.Fprintln(os.Stderr, colorize(colorCyan, "session: "+result.SessionID))
		}
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Submit a satisfaction rating for a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		satisfaction, _ := cmd.Flags().GetInt("satisfaction")
		message, _ := cmd.Flags().GetString("message")
		session, _ := cmd.Flags().GetString("session")

		if satisfaction < 1 || satisfaction > 5 {
			return fmt.Errorf("--satisfaction must be between 1 and 5")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"satisfaction": satisfaction}
		if message != "" {
			body["message"] = message
		}
		if session != "" {
			body["session_id"] = session
		}
		resp, err := client.post(cmd.Context(), "/api/feedback", body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Feedback recorded")
		return nil
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show usage analytics for a trailing window",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/analytics?days=%d", days))
		if err != nil {
			return err
		}

		var sum analytics.Summary
		if err := decodeJSON(resp, &sum); err != nil {
			return err
		}

		fmt.Println(colorize(colorBold, sum.TimePeriod))
		printStatus("Interactions", "%d", sum.Metrics.TotalInteractions)
		printStatus("Unique sessions", "%d", sum.Metrics.UniqueSessions)
		if sum.Metrics.AvgResponseTime != nil {
			printStatus("Avg response time", "%.3fs", *sum.Metrics.AvgResponseTime)
		}
		for _, qt := range sum.QuestionTypes {
			printStatus(qt.QuestionType, "%d", qt.Count)
		}
		return nil
	},
}

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Inspect logged interactions (requires API token)",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/interactions?limit=%d", limit))
		if err != nil {
			return err
		}

		var interactions []struct {
			ID           int64  `json:"id"`
			Timestamp    string `json:"timestamp"`
			SessionID    string `json:"session_id"`
			UserInput    string `json:"user_input"`
			QuestionType string `json:"question_type"`
		}
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range interactions {
			input := ix.UserInput
			if len(input) > 80 {
				input = input[:80] + "..."
			}
			fmt.Printf("%s  %s  %-15s  %s\n",
				colorize(colorCyan, fmt.Sprintf("%6d", ix.ID)),
				ix.Timestamp,
				ix.QuestionType,
				input,
			)
		}
		return nil
	},
}

var interactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single interaction as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/interactions/"+args[0])
		if err != nil {
			return err
		}

		var interaction map[string]any
		if err := decodeJSON(resp, &interaction); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(interaction)
	},
}

func init() {
	askCmd.Flags().String("session", "", "session id for conversation continuity")

	feedbackCmd.Flags().Int("satisfaction", 0, "rating from 1 (poor) to 5 (great)")
	feedbackCmd.Flags().String("message", "", "optional comment")
	feedbackCmd.Flags().String("session", "", "session the feedback refers to")

	analyticsCmd.Flags().Int("days", 30, "trailing window in days")

	interactionsListCmd.Flags().Int("limit", 20, "maximum number of rows to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsShowCmd)
}
