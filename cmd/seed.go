package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
)

var tier1Companies = []string{"Google", "Meta", "OpenAI", "Microsoft", "Apple"}

var otherCompanies = []string{"StartupX", "LocalSoft", "EduTech", "RetailCorp", "BankInc"}

var seedLocations = []string{"US", "Canada", "Germany", "UK", "India", "France", "Australia"}

var seedTitles = []string{"SWE", "Engineer", "Data Scientist", "Product Dev"}

var seedTechnologies = []string{"Python", "JS", "C++", "Go"}

var seedRates = []float64{50, 60, 65, 70, 75, 80, 90, 100, 120, 150}

var seedAvailabilities = []float64{15, 20, 25, 30, 35}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the base with mock applicants for testing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, logger, err := toolsSetup()
		if err != nil {
			return err
		}

		count, err := cmd.Flags().GetInt("count")
		if err != nil {
			return err
		}

		if cmd.Flag("reset").Value.String() == "true" {
			if !confirm("Delete ALL records in the base before seeding?") {
				logger.Info("exiting", zap.String("reason", "got no from prompt"))
				return nil
			}
			if err := clearAll(store, logger); err != nil {
				return fmt.Errorf("clearing base: %w", err)
			}
		}

		return seed(store, count, logger)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int("count", 11, "number of mock applicants to create")
	seedCmd.Flags().Bool("reset", false, "delete all existing records first")
}

// clearAll deletes children before parents so no dangling links remain.
func clearAll(store *airtable.Client, logger *zap.Logger) error {
	tables := []string{
		store.Tables.Personal,
		store.Tables.Experience,
		store.Tables.Salary,
		store.Tables.Shortlisted,
		store.Tables.Applicants,
	}

	for _, table := range tables {
		records, err := store.List(table)
		if err != nil {
			return fmt.Errorf("list %s: %w", table, err)
		}
		for _, r := range records {
			if err := store.Delete(table, r.ID); err != nil {
				return fmt.Errorf("delete %s from %s: %w", r.ID, table, err)
			}
		}
		logger.Info("cleared table", zap.String("table", table), zap.Int("deleted", len(records)))
	}

	return nil
}

func seed(store *airtable.Client, count int, logger *zap.Logger) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	companies := append(append([]string{}, tier1Companies...), otherCompanies...)

	for i := 1; i <= count; i++ {
		label := fmt.Sprintf("APP%03d", i)

		app, err := store.Create(store.Tables.Applicants, map[string]any{
			airtable.LinkField: label,
		})
		if err != nil {
			return fmt.Errorf("create applicant %s: %w", label, err)
		}

		_, err = store.Create(store.Tables.Personal, map[string]any{
			airtable.LinkField:     []string{app.ID},
			airtable.FieldFullName: fmt.Sprintf("Candidate %d", i),
			airtable.FieldEmail:    fmt.Sprintf("candidate%d@example.com", i),
			airtable.FieldLocation: seedLocations[rng.Intn(len(seedLocations))],
			airtable.FieldLinkedIn: fmt.Sprintf("https://linkedin.com/in/candidate%d", i),
		})
		if err != nil {
			return fmt.Errorf("create personal details for %s: %w", label, err)
		}

		for n := rng.Intn(3) + 1; n > 0; n-- {
			years := rng.Intn(6) + 3
			end := time.Now().AddDate(0, 0, -rng.Intn(366))
			start := end.AddDate(-years, 0, 0)

			_, err = store.Create(store.Tables.Experience, map[string]any{
				airtable.LinkField:         []string{app.ID},
				airtable.FieldCompany:      companies[rng.Intn(len(companies))],
				airtable.FieldTitle:        seedTitles[rng.Intn(len(seedTitles))],
				airtable.FieldStart:        start.Format("2006-01-02"),
				airtable.FieldEnd:          end.Format("2006-01-02"),
				airtable.FieldTechnologies: seedTechnologies[rng.Intn(len(seedTechnologies))],
			})
			if err != nil {
				return fmt.Errorf("create work experience for %s: %w", label, err)
			}
		}

		rate := seedRates[rng.Intn(len(seedRates))]
		minRate := rate - 20
		if minRate < 50 {
			minRate = 50
		}

		_, err = store.Create(store.Tables.Salary, map[string]any{
			airtable.LinkField:          []string{app.ID},
			airtable.FieldPreferredRate: rate,
			airtable.FieldMinimumRate:   minRate,
			airtable.FieldCurrency:      "USD",
			airtable.FieldAvailability:  seedAvailabilities[rng.Intn(len(seedAvailabilities))],
		})
		if err != nil {
			return fmt.Errorf("create salary preferences for %s: %w", label, err)
		}

		logger.Info("created mock applicant", zap.String("applicant_id", label), zap.String("record_id", app.ID))
	}

	logger.Info("seed complete", zap.Int("applicants", count))
	return nil
}
