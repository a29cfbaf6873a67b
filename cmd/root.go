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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "prompter",
	Short: "Korean query → enhanced English prompt service",
	Long: `Prompter takes a short Korean query, enhances it into a detailed English
prompt for a main LLM, and returns the exact Korean back-translation of that
prompt so the user can verify it says what they meant.

Supported completion providers: OpenAI, OpenRouter, Ollama (self-hosted)

Use "prompter serve" to run the HTTP API or "prompter refine" for one-shot use.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
