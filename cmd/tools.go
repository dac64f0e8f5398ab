package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/applicant"
	"github.com/talentops/applicant-pipeline/internal/evaluation"
	"github.com/talentops/applicant-pipeline/internal/export"
	"github.com/talentops/applicant-pipeline/internal/logger"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Maintenance helpers for the applicant base",
}

var viewCmd = &cobra.Command{
	Use:   "view <record-id>",
	Short: "Print the decoded applicant document and pipeline status",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, _, err := toolsSetup()
		if err != nil {
			return err
		}

		app, err := store.Get(store.Tables.Applicants, args[0])
		if err != nil {
			return fmt.Errorf("get applicant: %w", err)
		}

		raw := app.Fields.String(airtable.FieldCompressedJSON)
		if raw == "" {
			fmt.Println("no compressed document")
		} else {
			doc, err := applicant.Parse(raw)
			if err != nil {
				return fmt.Errorf("parse document: %w", err)
			}

			pretty, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(pretty))
		}

		status := app.Fields.String(airtable.FieldShortlistStatus)
		if status == "" {
			status = "not evaluated"
		}
		fmt.Printf("\nshortlist status: %s\n", status)

		if summary := app.Fields.String(airtable.FieldLLMSummary); summary != "" {
			fmt.Printf("llm summary: %s\n", summary)
			if score, ok := app.Fields.Number(airtable.FieldLLMScore); ok {
				fmt.Printf("llm score: %.0f/10\n", score)
			}
			if followUps := app.Fields.String(airtable.FieldLLMFollowUps); followUps != "" {
				fmt.Printf("follow-ups:\n%s\n", followUps)
			}
		}

		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List applicants with their processing state",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, _, err := toolsSetup()
		if err != nil {
			return err
		}

		applicants, err := store.List(store.Tables.Applicants)
		if err != nil {
			return fmt.Errorf("list applicants: %w", err)
		}

		for _, app := range applicants {
			compressed := "no"
			if app.Fields.String(airtable.FieldCompressedJSON) != "" {
				compressed = "yes"
			}
			evaluated := "no"
			if app.Fields.String(airtable.FieldLLMSummary) != "" {
				evaluated = "yes"
			}
			status := app.Fields.String(airtable.FieldShortlistStatus)
			if status == "" {
				status = "-"
			}

			fmt.Printf("%s\tcompressed=%s\tshortlist=%s\tevaluated=%s\n", app.ID, compressed, status, evaluated)
		}

		return nil
	},
}

var decompressCmd = &cobra.Command{
	Use:   "decompress <record-id>",
	Short: "Rebuild the child table rows from the applicant's stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, logger, err := toolsSetup()
		if err != nil {
			return err
		}

		if cmd.Flag("yes").Value.String() != "true" {
			if !confirm(fmt.Sprintf("Overwrite the child rows of %s from the stored document?", args[0])) {
				logger.Info("exiting", zap.String("reason", "got no from prompt"))
				return nil
			}
		}

		doc, err := applicant.NewDecompressor(store, store.Tables, logger).Decompress(args[0])
		if err != nil {
			return fmt.Errorf("decompress applicant: %w", err)
		}

		logger.Info("applicant decompressed",
			zap.String("record_id", args[0]),
			zap.Int("experience_entries", len(doc.Experience)),
		)
		return nil
	},
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <record-id>",
	Short: "Recompress and re-evaluate one applicant after manual edits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		store, logger, err := toolsSetup()
		if err != nil {
			return err
		}

		if cmd.Flag("yes").Value.String() != "true" {
			if !confirm(fmt.Sprintf("Recompress and re-evaluate %s?", args[0])) {
				logger.Info("exiting", zap.String("reason", "got no from prompt"))
				return nil
			}
		}

		if _, err := applicant.NewCompressor(store, store.Tables, logger).Compress(args[0]); err != nil {
			return fmt.Errorf("recompress applicant: %w", err)
		}
		logger.Info("applicant recompressed", zap.String("record_id", args[0]))

		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}
		completer, err := newCompleter(ctx, config.AI)
		if err != nil {
			return fmt.Errorf("building llm client: %w", err)
		}

		app, err := store.Get(store.Tables.Applicants, args[0])
		if err != nil {
			return fmt.Errorf("get applicant: %w", err)
		}

		result, err := evaluation.New(store, store.Tables, completer, evaluationConfig(config), logger).Evaluate(ctx, app)
		if err != nil {
			return fmt.Errorf("re-evaluate applicant: %w", err)
		}

		if result.Skipped {
			logger.Info("llm evaluation skipped",
				zap.String("record_id", args[0]),
				zap.String("reason", result.SkipReason),
			)
			return nil
		}

		logger.Info("llm re-evaluation complete",
			zap.String("record_id", args[0]),
			zap.Int("score", result.Evaluation.Score),
			zap.Int64("tokens_used", result.TokensUsed),
		)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <output-path>",
	Short: "Export applicants and shortlisted leads to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, logger, err := toolsSetup()
		if err != nil {
			return err
		}

		path, err := export.New(store, store.Tables, logger).Export(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("workbook written to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)

	decompressCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	reprocessCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	toolsCmd.AddCommand(viewCmd, listCmd, decompressCmd, reprocessCmd, exportCmd)
}

func toolsSetup() (*airtable.Client, *zap.Logger, error) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}

	store, err := newStore(context.Background(), config, logger)
	if err != nil {
		return nil, nil, err
	}

	return store, logger, nil
}

func confirm(label string) bool {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return false
	}

	return action == PromptYes
}
