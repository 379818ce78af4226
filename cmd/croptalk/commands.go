package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/croptalk/internal/version"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	env        string
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "croptalk",
		Short:         "Filtered document retrieval for crop insurance questions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to YAML configuration file (default: config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.env, "env", "",
		"Environment name used for logging and config lookup (default: $ENV or local)")

	cmd.AddCommand(
		buildServeCmd(opts),
		buildEvalCmd(opts),
		buildIndexCmd(opts),
		buildIngestCmd(opts),
		buildVersionCmd(),
	)
	return cmd
}

func buildServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the retrieval HTTP API",
		Long: `Start the retrieval HTTP API.

POST /v1/documents runs one filtered retrieval, GET /health reports database,
embedding provider and passage index status, GET /metrics exposes Prometheus
metrics. Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

// evalOptions are the flags of the eval command.
type evalOptions struct {
	evalPath   string
	mode       string
	outputPath string
}

func buildEvalCmd(opts *rootOptions) *cobra.Command {
	eo := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score document retrieval against a labeled evaluation set",
		Long: `Run every use case of the evaluation CSV through the conversational pipeline,
recover the retrieval step from each run and score facets, documents and pages
against the expected values.

The report is written next to the input as <stem>_output_<mode>.csv unless
--output is given.`,
		Example: `  croptalk eval --eval-path cases/eval.csv --mode llm
  croptalk eval --eval-path cases/eval.csv --mode functions --output /tmp/report.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd.Context(), opts, eo, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&eo.evalPath, "eval-path", "", "Path to the evaluation CSV")
	cmd.Flags().StringVar(&eo.mode, "mode", "functions", "Conversational backend: llm or functions")
	cmd.Flags().StringVarP(&eo.outputPath, "output", "o", "", "Report path (default: derived from --eval-path and --mode)")
	_ = cmd.MarkFlagRequired("eval-path")
	return cmd
}

func buildIndexCmd(opts *rootOptions) *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Create the passage search index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), opts, drop, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "Drop the index instead of creating it (passages are kept)")
	return cmd
}

func buildIngestCmd(opts *rootOptions) *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "ingest <passages.jsonl>",
		Short: "Embed and store pre-chunked passages",
		Long: `Read one JSON passage per line (id, s3_key, title, page, doc_category, state,
county, commodity, content), embed the content and store it in the passage index.
The index is created first when missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return fmt.Errorf("--batch-size must be positive, got %d", batchSize)
			}
			return runIngest(cmd.Context(), opts, args[0], batchSize, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 64, "Passages written per pipeline round trip")
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
