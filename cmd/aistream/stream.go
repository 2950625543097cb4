package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/ai/gemini"
	"github.com/leofalp/aistream/providers/ai/generic"
)

var (
	streamCmdFlags    streamFlags
	streamProvider    string
	streamProfileFile string
	streamURL         string
	streamAPIKey      string
	streamModel       string
)

var streamCmd = &cobra.Command{
	Use:   "stream [payload.json]",
	Short: "Send a request payload and print the normalized stream",
	Long: `Stream sends a vendor request body (a JSON file, or stdin) to a live
endpoint and prints the canonical events. The payload is passed through
unchanged apart from the vendor's streaming flag.

With a generic profile (--provider openai-compatible, --profile-file ...) the
endpoint is given with --url and the Bearer token with --api-key.`,
	Example: `  aistream stream --provider anthropic request.json
  aistream stream --provider gemini --model gemini-2.5-flash request.json
  aistream stream --provider openai-compatible --url http://localhost:11434/v1/chat/completions request.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := resolveProvider()
		if err != nil {
			return err
		}
		observer, err := newObserver(cmd)
		if err != nil {
			return err
		}

		input := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open payload: %w", err)
			}
			defer utils.CloseWithLog(file)
			input = file
		}
		payload, err := io.ReadAll(input)
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		if !json.Valid(payload) {
			return fmt.Errorf("payload is not valid JSON")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := provider.Stream(ctx, json.RawMessage(payload), streamCmdFlags.options(observer)...)
		if err != nil {
			return err
		}
		return printStream(cmd.OutOrStdout(), s, streamCmdFlags.collect)
	},
}

func resolveProvider() (ai.StreamProvider, error) {
	if streamProfileFile == "" {
		if newProvider, ok := vendors[streamProvider]; ok {
			provider := newProvider()
			if g, ok := provider.(*gemini.GeminiProvider); ok && streamModel != "" {
				g.WithModel(streamModel)
			}
			return provider, nil
		}
	}

	var profile generic.Profile
	var err error
	switch {
	case streamProfileFile != "":
		profile, err = generic.Load(streamProfileFile)
	case streamProvider != "":
		profile, err = generic.Builtin(streamProvider)
	default:
		return nil, fmt.Errorf("a --provider or --profile-file is required")
	}
	if err != nil {
		return nil, err
	}
	if streamURL == "" {
		return nil, fmt.Errorf("--url is required for generic profile %q", profile.Name)
	}

	provider, err := generic.New(profile, streamURL)
	if err != nil {
		return nil, err
	}
	return provider.WithAPIKey(streamAPIKey), nil
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().StringVarP(&streamProvider, "provider", "p", "", "Vendor (openai, anthropic, gemini) or built-in generic profile")
	streamCmd.Flags().StringVar(&streamProfileFile, "profile-file", "", "YAML profile file for a generic endpoint")
	streamCmd.Flags().StringVar(&streamURL, "url", "", "Endpoint URL for generic profiles")
	streamCmd.Flags().StringVar(&streamAPIKey, "api-key", "", "Bearer token for generic profiles")
	streamCmd.Flags().StringVar(&streamModel, "model", "", "Model for the gemini provider")
	streamCmdFlags.register(streamCmd)
}
