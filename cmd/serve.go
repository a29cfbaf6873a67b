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
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minjaelab/prompter/internal/prompter"
	"github.com/minjaelab/prompter/internal/provider"
	"github.com/minjaelab/prompter/internal/server"
	"github.com/minjaelab/prompter/internal/store"
	"github.com/minjaelab/prompter/internal/verifier"
)

var (
	servePort        int
	serveProvider    string
	serveModel       string
	serveTemperature float64
	serveTimeout     time.Duration

	serveOpenAIKey     string
	serveOpenAIBaseURL string
	serveOpenRouterKey string
	serveOllamaURL     string

	serveDBPath  string
	serveNoCache bool

	serveVerify            bool
	serveGoogleCredentials string

	serveEnvFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prompt refinement HTTP API",
	Long: `Start the HTTP server exposing POST /refine.

The endpoint accepts {"user_query": "..."} and returns the enhanced English
prompt together with its Korean back-translation. Every flag can also be set
through a PROMPTER_* environment variable (e.g. PROMPTER_PORT, PROMPTER_MODEL);
API keys use their conventional names (OPENAI_API_KEY, OPENROUTER_API_KEY).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(serveEnvFile); err != nil {
			return err
		}
		bindFlags(cmd, append([]string{"port"}, configFlags...)...)

		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		svc, err := buildProvider(viper.GetString("provider"),
			viper.GetString("openai-key"), viper.GetString("openai-base-url"),
			viper.GetString("openrouter-key"), viper.GetString("ollama-url"))
		if err != nil {
			return err
		}

		cfg := provider.Config{
			Model:       viper.GetString("model"),
			Temperature: viper.GetFloat64("temperature"),
			Timeout:     viper.GetDuration("timeout"),
		}
		p := prompter.New(svc, cfg)

		var db *store.Store
		if !serveNoCache && serveDBPath != "" {
			db, err = store.New(serveDBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		var v *verifier.GoogleVerifier
		if serveVerify {
			v = verifier.NewGoogleVerifier(serveGoogleCredentials)
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", viper.GetInt("port")),
			Handler: server.New(p, db, v, logger).Handler(),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logger.Info("listening",
			"addr", srv.Addr,
			"provider", svc.Name(),
			"model", cfg.Model,
			"cache", db != nil)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8001, "Port to listen on")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "openai", "Completion provider (openai, openrouter, ollama)")
	serveCmd.Flags().StringVar(&serveModel, "model", provider.DefaultOpenAIModel, "Model name")
	serveCmd.Flags().Float64Var(&serveTemperature, "temperature", 0.3, "Sampling temperature")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 60*time.Second, "Upstream request timeout")

	serveCmd.Flags().StringVar(&serveOpenAIKey, "openai-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	serveCmd.Flags().StringVar(&serveOpenAIBaseURL, "openai-base-url", "", "OpenAI-compatible base URL override")
	serveCmd.Flags().StringVar(&serveOpenRouterKey, "openrouter-key", "", "OpenRouter API key (defaults to OPENROUTER_API_KEY)")
	serveCmd.Flags().StringVar(&serveOllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")

	serveCmd.Flags().StringVar(&serveDBPath, "db", "./data/prompter.db", "Database path for refinement memory")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "Disable the refinement memory cache")

	serveCmd.Flags().BoolVar(&serveVerify, "verify", false, "Cross-check back-translations with Google Cloud Translation")
	serveCmd.Flags().StringVar(&serveGoogleCredentials, "google-credentials", "", "Path to Google Cloud credentials (for --verify)")

	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "Env file to load before reading configuration")
}
