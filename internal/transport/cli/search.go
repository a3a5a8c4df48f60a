package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
)

var (
	searchLimit    int
	searchMinScore float64
	searchFilters  map[string]string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Runs the hybrid ranking pipeline: vector candidates blended with BM25,
metadata boosts and recency decay.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", request.DefaultLimit, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", request.DefaultMinScore, "minimum vector similarity")
	searchCmd.Flags().StringToStringVarP(&searchFilters, "filter", "f", nil, "metadata filter key=value")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	req, err := request.New(args[0], searchLimit, searchMinScore, searchFilters, nil, true, true)
	if err != nil {
		return fmt.Errorf("invalid search: %w", err)
	}

	results, err := searchService.Search(cmd.Context(), &req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

type jsonResult struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Score      float64           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Highlights []string          `json:"highlights,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, results []result.Result) error {
	out := make([]jsonResult, len(results))
	for i := range results {
		out[i] = jsonResult{
			ID:         results[i].ID(),
			Title:      results[i].Title(),
			Score:      results[i].Score(),
			Metadata:   results[i].Metadata(),
			Highlights: results[i].Highlights(),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []result.Result) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Title()
		if title == "" {
			title = results[i].ID()
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, results[i].Score())
		if hl := results[i].Highlights(); len(hl) > 0 {
			cmd.Printf("      %s\n", hl[0])
		}
	}
}
