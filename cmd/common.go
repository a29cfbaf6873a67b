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
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minjaelab/prompter/internal/provider"
)

// bindFlags binds the named flags of the running command to PROMPTER_*
// environment variables (dashes become underscores, e.g. --openai-base-url
// reads PROMPTER_OPENAI_BASE_URL). An explicit flag still wins over the
// environment. Called from RunE so each command binds its own flag set.
func bindFlags(cmd *cobra.Command, names ...string) {
	viper.SetEnvPrefix("PROMPTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range names {
		_ = viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

// configFlags are the knobs every refinement command exposes and binds.
var configFlags = []string{
	"provider", "model", "temperature", "timeout",
	"openai-key", "openai-base-url", "openrouter-key", "ollama-url",
}

// buildProvider constructs the completion provider selected by name.
// API keys fall back to the conventional environment variables when the
// corresponding flag is empty.
func buildProvider(name, openaiKey, openaiBaseURL, openrouterKey, ollamaURL string) (provider.Provider, error) {
	switch name {
	case "openai":
		if openaiKey == "" {
			openaiKey = os.Getenv("OPENAI_API_KEY")
		}
		return provider.NewOpenAIService(openaiKey, openaiBaseURL), nil
	case "openrouter":
		if openrouterKey == "" {
			openrouterKey = os.Getenv("OPENROUTER_API_KEY")
		}
		return provider.NewOpenRouterService(openrouterKey, ""), nil
	case "ollama":
		return provider.NewOllamaService(ollamaURL), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// loadEnvFile loads a .env file when present; a missing file is not an error
// so the process can run on environment variables alone.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
