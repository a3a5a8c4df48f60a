package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	evaluc "github.com/kailas-cloud/semsearch/internal/usecase/eval"
)

var (
	evalK       int
	evalQueries string
	evalReport  string
	evalNoSeed  bool
	evalJSON    bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate ranking quality",
	Long: `Computes MRR, NDCG@k and Recall@k.
Without --queries the demo corpus is seeded and the curated queries are scored.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().IntVar(&evalK, "k", evaluc.DefaultK, "rank cutoff")
	evalCmd.Flags().StringVarP(&evalQueries, "queries", "q", "", "JSON file with [{query, relevant_ids}]")
	evalCmd.Flags().StringVar(&evalReport, "report", "", "write the JSON report to this path")
	evalCmd.Flags().BoolVar(&evalNoSeed, "no-seed", false, "skip seeding before the curated run")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	if evalService == nil {
		return errors.New("eval service not configured")
	}

	rep, err := evaluate(cmd)
	if err != nil {
		return err
	}

	if evalReport != "" {
		if err := evaluc.WriteReport(evalReport, rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if evalJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Queries: %d  k=%d\n", rep.TotalQueries, rep.K)
	cmd.Printf("MRR:       %.4f\n", rep.MRR)
	cmd.Printf("NDCG@%d:    %.4f\n", rep.K, rep.NDCG)
	cmd.Printf("Recall@%d:  %.4f\n", rep.K, rep.RecallAtK)
	for _, d := range rep.Details {
		cmd.Printf("  %-40s rr=%.3f ndcg=%.3f recall=%.3f\n", d.Query, d.ReciprocalRank, d.NDCG, d.Recall)
	}
	return nil
}

func evaluate(cmd *cobra.Command) (evaluc.Report, error) {
	ctx := cmd.Context()

	if evalQueries != "" {
		queries, err := loadQueries(evalQueries)
		if err != nil {
			return evaluc.Report{}, err
		}
		rep, err := evalService.Run(ctx, queries, evalK)
		if err != nil {
			return evaluc.Report{}, fmt.Errorf("eval failed: %w", err)
		}
		return rep, nil
	}

	if !evalNoSeed {
		if seedService == nil {
			return evaluc.Report{}, errors.New("seed service not configured")
		}
		if _, err := seedService.SeedDemo(ctx); err != nil {
			return evaluc.Report{}, fmt.Errorf("seed failed: %w", err)
		}
	}

	rep, err := evalService.RunCurated(ctx, evalK)
	if err != nil {
		return evaluc.Report{}, fmt.Errorf("eval failed: %w", err)
	}
	return rep, nil
}

func loadQueries(path string) ([]evaluc.Query, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	var queries []evaluc.Query
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parse queries: %w", err)
	}
	return queries, nil
}
