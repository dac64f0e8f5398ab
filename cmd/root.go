package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/ai"
	"github.com/talentops/applicant-pipeline/internal/ai/gemini"
	"github.com/talentops/applicant-pipeline/internal/ai/groq"
	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/evaluation"
	"github.com/talentops/applicant-pipeline/internal/secrets"
	"github.com/talentops/applicant-pipeline/internal/shortlist"
)

const (
	app = "applicant-pipeline"
)

type Config struct {
	Airtable   *AirtableConfig    `mapstructure:"airtable"`
	AI         *AIConfig          `mapstructure:"ai"`
	Rules      *shortlist.Config  `mapstructure:"rules"`
	Evaluation *evaluation.Config `mapstructure:"evaluation"`
	Retry      *RetryConfig       `mapstructure:"retry"`
}

type AirtableConfig struct {
	TokenFile string          `mapstructure:"token-file"`
	Token     string          `mapstructure:"token"`
	BaseID    string          `mapstructure:"base-id"`
	Tables    airtable.Tables `mapstructure:"tables"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Groq     *GroqConfig   `mapstructure:"groq"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GroqConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type RetryConfig struct {
	MaxAttempts int `mapstructure:"max-attempts"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "applicant-pipeline compresses, shortlists and evaluates job applicants stored in an Airtable base",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"airtable.token-file":    "AIRTABLE_TOKEN_FILE",
		"airtable.base-id":       "AIRTABLE_BASE_ID",
		"ai.groq.api-key-file":   "GROQ_API_KEY_FILE",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is applicant-pipeline.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// .env is optional and only a convenience for local runs.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine, environment variables can carry the
	// whole configuration. A malformed one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Airtable == nil {
		config.Airtable = &AirtableConfig{}
	}

	return config, nil
}

// newStore builds the Airtable client from the config, resolving the token
// from a value, a file or the bound environment variables.
func newStore(ctx context.Context, config *Config, logger *zap.Logger) (*airtable.Client, error) {
	baseID := strings.TrimSpace(config.Airtable.BaseID)
	if baseID == "" {
		baseID = strings.TrimSpace(viper.GetString("airtable.base-id"))
	}
	if baseID == "" {
		return nil, errors.New("airtable base id is not configured (set airtable.base-id or AIRTABLE_BASE_ID)")
	}

	tokenFile := strings.TrimSpace(config.Airtable.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("airtable.token-file"))
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "airtable token",
		Value: config.Airtable.Token,
		File:  tokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set airtable.token-file or AIRTABLE_TOKEN_FILE)", err)
	}

	return airtable.New(ctx, logger, token, baseID, config.Airtable.Tables), nil
}

// newCompleter builds the configured LLM client. Groq is the default
// provider.
func newCompleter(ctx context.Context, config *AIConfig) (ai.Completer, error) {
	provider := "groq"
	var groqCfg GroqConfig
	var geminiCfg GeminiConfig

	if config != nil {
		if p := strings.TrimSpace(strings.ToLower(config.Provider)); p != "" {
			provider = p
		}
		if config.Groq != nil {
			groqCfg = *config.Groq
		}
		if config.Gemini != nil {
			geminiCfg = *config.Gemini
		}
	}

	switch provider {
	case "groq":
		keyFile := strings.TrimSpace(groqCfg.APIKeyFile)
		if keyFile == "" {
			keyFile = strings.TrimSpace(viper.GetString("ai.groq.api-key-file"))
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name: "groq api key",
			File: keyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.groq.api-key-file or GROQ_API_KEY_FILE)", err)
		}
		return groq.New(apiKey, groqCfg.Model)
	case "gemini":
		keyFile := strings.TrimSpace(geminiCfg.APIKeyFile)
		if keyFile == "" {
			keyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: keyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}
		return gemini.New(ctx, apiKey, geminiCfg.Model)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", provider)
	}
}

func rulesConfig(config *Config) shortlist.Config {
	if config.Rules == nil {
		return shortlist.Config{}
	}
	return *config.Rules
}

func evaluationConfig(config *Config) evaluation.Config {
	if config.Evaluation == nil {
		return evaluation.Config{}
	}
	return *config.Evaluation
}

func retryAttempts(config *Config) int {
	if config.Retry == nil {
		return 0
	}
	return config.Retry.MaxAttempts
}
