// Command aistream normalizes AI vendor streams from the command line: it
// replays captured SSE transcripts, opens live streams and waits on vendor
// long-running tasks.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/leofalp/aistream/providers/observability"
	"github.com/leofalp/aistream/providers/observability/slogobs"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "aistream",
	Short: "Normalize AI vendor streams into canonical events",
	Long: `aistream turns OpenAI, Anthropic, Gemini and profile-described vendor
streams into one canonical event sequence, printed as JSON lines.

API keys are read from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY,
GEMINI_API_KEY); a .env file in the working directory is loaded first.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default from AISTREAM_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from AISTREAM_LOG_FORMAT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newObserver builds the stderr observer from the logging flags, falling back
// to the environment for anything left unset.
func newObserver(cmd *cobra.Command) (observability.Provider, error) {
	opts := []slogobs.Option{slogobs.WithOutput(cmd.ErrOrStderr())}
	if logLevel != "" {
		level, err := slogobs.ParseLevel(logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		opts = append(opts, slogobs.WithLevel(level))
	}
	if logFormat != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(logFormat)))
	}
	return slogobs.New(opts...), nil
}
