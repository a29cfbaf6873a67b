/*
Copyright © 2025 Minjae Lee <minjae.lee.dev@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minjaelab/prompter/internal"
	"github.com/minjaelab/prompter/internal/prompter"
	"github.com/minjaelab/prompter/internal/provider"
	"github.com/minjaelab/prompter/internal/store"
	"github.com/minjaelab/prompter/internal/validator"
	"github.com/minjaelab/prompter/internal/verifier"
)

var (
	refineProvider    string
	refineModel       string
	refineTemperature float64
	refineTimeout     time.Duration

	refineOpenAIKey     string
	refineOpenAIBaseURL string
	refineOpenRouterKey string
	refineOllamaURL     string

	refineDBPath  string
	refineNoCache bool

	refineVerify            bool
	refineGoogleCredentials string

	refineEnvFile string
)

var refineCmd = &cobra.Command{
	Use:   "refine [query]",
	Short: "Refine a single Korean query from the command line",
	Long: `Refine one query without running the HTTP server. The query is taken from
the argument, or from stdin when no argument is given. The result is printed
as JSON on stdout.

Example:
  prompter refine "여행 계획 짜줘"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(refineEnvFile); err != nil {
			return err
		}
		bindFlags(cmd, configFlags...)

		var userQuery string
		if len(args) == 1 {
			userQuery = args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read query from stdin: %w", err)
			}
			userQuery = strings.TrimSpace(string(data))
		}

		ctx := context.Background()

		var db *store.Store
		var err error
		if !refineNoCache && refineDBPath != "" {
			db, err = store.New(refineDBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if eng, kor, found, cacheErr := db.GetCached(ctx, userQuery); cacheErr == nil && found {
				fmt.Fprintf(os.Stderr, "Using cached refinement\n")
				return printRefinement(eng, kor, nil)
			}
		}

		svc, err := buildProvider(viper.GetString("provider"),
			viper.GetString("openai-key"), viper.GetString("openai-base-url"),
			viper.GetString("openrouter-key"), viper.GetString("ollama-url"))
		if err != nil {
			return err
		}

		p := prompter.New(svc, provider.Config{
			Model:       viper.GetString("model"),
			Temperature: viper.GetFloat64("temperature"),
			Timeout:     viper.GetDuration("timeout"),
		})

		ref, err := p.Refine(ctx, userQuery)
		if err != nil {
			return err
		}

		for _, verr := range validator.New().CheckRefinement(ref.EnhancedEngPrompt, ref.BackTranslationKor) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", verr)
		}

		var report *verifier.Report
		if refineVerify {
			report, err = verifier.NewGoogleVerifier(refineGoogleCredentials).Verify(ctx, ref.EnhancedEngPrompt, ref.BackTranslationKor)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Verifier failed: %v\n", err)
				report = nil
			}
		}

		if db != nil && !refineNoCache {
			reqID := uuid.New().String()
			_ = db.SaveRequest(ctx, internal.RefinementRequest{
				ID:        reqID,
				UserQuery: userQuery,
				Timestamp: time.Now(),
			})
			_ = db.SaveRefinement(ctx, reqID, ref.Provider, ref.EnhancedEngPrompt, ref.BackTranslationKor, ref.Model, int(ref.Latency.Milliseconds()), "")
			_ = db.SaveToMemory(ctx, userQuery, ref.EnhancedEngPrompt, ref.BackTranslationKor, ref.Provider)
		}

		return printRefinement(ref.EnhancedEngPrompt, ref.BackTranslationKor, report)
	},
}

func printRefinement(enhancedEng, backTranslationKor string, report *verifier.Report) error {
	out := map[string]any{
		"enhanced_eng_prompt":  enhancedEng,
		"back_translation_kor": backTranslationKor,
	}
	if report != nil {
		out["fidelity"] = report
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rootCmd.AddCommand(refineCmd)

	refineCmd.Flags().StringVar(&refineProvider, "provider", "openai", "Completion provider (openai, openrouter, ollama)")
	refineCmd.Flags().StringVar(&refineModel, "model", provider.DefaultOpenAIModel, "Model name")
	refineCmd.Flags().Float64Var(&refineTemperature, "temperature", 0.3, "Sampling temperature")
	refineCmd.Flags().DurationVar(&refineTimeout, "timeout", 60*time.Second, "Upstream request timeout")

	refineCmd.Flags().StringVar(&refineOpenAIKey, "openai-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	refineCmd.Flags().StringVar(&refineOpenAIBaseURL, "openai-base-url", "", "OpenAI-compatible base URL override")
	refineCmd.Flags().StringVar(&refineOpenRouterKey, "openrouter-key", "", "OpenRouter API key (defaults to OPENROUTER_API_KEY)")
	refineCmd.Flags().StringVar(&refineOllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")

	refineCmd.Flags().StringVar(&refineDBPath, "db", "./data/prompter.db", "Database path for refinement memory")
	refineCmd.Flags().BoolVar(&refineNoCache, "no-cache", false, "Disable the refinement memory cache")

	refineCmd.Flags().BoolVar(&refineVerify, "verify", false, "Cross-check the back-translation with Google Cloud Translation")
	refineCmd.Flags().StringVar(&refineGoogleCredentials, "google-credentials", "", "Path to Google Cloud credentials (for --verify)")

	refineCmd.Flags().StringVar(&refineEnvFile, "env-file", ".env", "Env file to load before reading configuration")
}
