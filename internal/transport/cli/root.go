// Package cli implements the semsearchctl operator commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
	evaluc "github.com/kailas-cloud/semsearch/internal/usecase/eval"
	seeduc "github.com/kailas-cloud/semsearch/internal/usecase/seed"
)

// Seeder loads the demo corpus.
type Seeder interface {
	SeedDemo(ctx context.Context) (seeduc.Report, error)
}

// Evaluator computes ranking quality metrics.
type Evaluator interface {
	Run(ctx context.Context, queries []evaluc.Query, k int) (evaluc.Report, error)
	RunCurated(ctx context.Context, k int) (evaluc.Report, error)
}

// Searcher runs ranked search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

var (
	seedService   Seeder
	evalService   Evaluator
	searchService Searcher
	bootstrap     func(ctx context.Context) error
)

// annotationOffline marks commands that run without services.
const annotationOffline = "offline"

var rootCmd = &cobra.Command{
	Use:           "semsearchctl",
	Short:         "Operate a semsearch deployment",
	Long:          `Seeds the demo corpus, runs ranking evaluations and issues searches against the configured store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if bootstrap == nil || cmd.Annotations[annotationOffline] != "" {
			return nil
		}
		return bootstrap(cmd.Context())
	},
}

// SetBootstrap registers the function that connects services before a command runs.
func SetBootstrap(fn func(ctx context.Context) error) {
	bootstrap = fn
}

// SetServices injects the use cases the commands run against.
func SetServices(seed Seeder, eval Evaluator, search Searcher) {
	seedService = seed
	evalService = eval
	searchService = search
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
