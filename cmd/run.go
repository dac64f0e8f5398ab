package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/applicant"
	"github.com/talentops/applicant-pipeline/internal/evaluation"
	"github.com/talentops/applicant-pipeline/internal/logger"
	"github.com/talentops/applicant-pipeline/internal/pipeline"
	"github.com/talentops/applicant-pipeline/internal/shortlist"
)

// Exit codes for the run command.
const (
	exitOK = iota
	exitPhaseFailures
	exitError
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the processing pipeline: compress documents, shortlist and evaluate with an LLM",
	Run: func(cmd *cobra.Command, _ []string) {
		os.Exit(run(cmd))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("mode", "m", string(pipeline.ModeNewOnly), "which applicants to process: new_only, changed or all")
	runCmd.Flags().StringP("applicant", "a", "", "process a single applicant record id")
	runCmd.Flags().Bool("dry-run", false, "list the applicants a run would process and exit")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) int {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Error("getting a config", zap.Error(err))
		return exitError
	}

	logger.Info("starting the applicant pipeline", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	mode, err := pipeline.ParseMode(cmd.Flag("mode").Value.String())
	if err != nil {
		logger.Error("parsing mode", zap.Error(err))
		return exitError
	}

	store, err := newStore(ctx, config, logger)
	if err != nil {
		logger.Error("building airtable client", zap.Error(err))
		return exitError
	}
	tables := store.Tables

	if cmd.Flag("dry-run").Value.String() == "true" {
		return dryRun(store, tables, mode, logger)
	}

	completer, err := newCompleter(ctx, config.AI)
	if err != nil {
		logger.Error("building llm client", zap.Error(err))
		return exitError
	}

	logger.Info("llm client ready", zap.String("model", completer.Model()))

	p := pipeline.New(
		store,
		tables,
		applicant.NewCompressor(store, tables, logger),
		shortlist.New(store, tables, rulesConfig(config), logger),
		evaluation.New(store, tables, completer, evaluationConfig(config), logger),
		retryAttempts(config),
		logger,
	)

	summary, err := p.Run(ctx, mode, cmd.Flag("applicant").Value.String())
	if err != nil {
		logger.Error("pipeline run failed", zap.Error(err))
		return exitError
	}

	if summary.NoWork {
		return exitOK
	}

	if summary.HasFailures() {
		logger.Warn("pipeline finished with failures")
		return exitPhaseFailures
	}

	logger.Info("pipeline finished")
	return exitOK
}

func dryRun(store airtable.Store, tables airtable.Tables, mode pipeline.Mode, logger *zap.Logger) int {
	p := pipeline.New(store, tables, nil, nil, nil, 0, logger)

	applicants, err := p.ApplicantsFor(mode)
	if err != nil {
		logger.Error("selecting applicants", zap.Error(err))
		return exitError
	}

	logger.Info("dry run", zap.String("mode", string(mode)), zap.Int("count", len(applicants)))
	for _, app := range applicants {
		logger.Info("would process applicant",
			zap.String("record_id", app.ID),
			zap.String("applicant_id", app.Fields.String(airtable.LinkField)),
		)
	}

	return exitOK
}
