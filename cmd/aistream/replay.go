package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leofalp/aistream/core/stream"
	"github.com/leofalp/aistream/providers/observability"
)

// streamFlags are shared by replay and stream.
type streamFlags struct {
	streamID string
	repair   bool
	collect  bool
}

func (flags *streamFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.streamID, "stream-id", "", "Stream id to set on every event, replacing the vendor id")
	cmd.Flags().BoolVar(&flags.repair, "repair", false, "Repair malformed tool-call arguments before parsing")
	cmd.Flags().BoolVar(&flags.collect, "collect", false, "Print one aggregated result instead of every event")
}

func (flags *streamFlags) options(observer observability.Provider) []stream.Option {
	opts := []stream.Option{stream.WithObserver(observer)}
	if flags.streamID != "" {
		opts = append(opts, stream.WithStreamID(flags.streamID))
	}
	if flags.repair {
		opts = append(opts, stream.WithArgumentRepair())
	}
	return opts
}

// printStream writes events as JSON lines, or the collected result with
// --collect. A mid-stream error is returned after the output produced so far.
func printStream(out io.Writer, s *stream.Stream, collect bool) error {
	encoder := json.NewEncoder(out)
	if collect {
		result, err := s.Collect()
		if result != nil {
			if encodeErr := encoder.Encode(result); encodeErr != nil {
				return encodeErr
			}
		}
		return err
	}

	for event, err := range s.Iter() {
		if err != nil {
			return err
		}
		if err := encoder.Encode(event); err != nil {
			return err
		}
	}
	return nil
}

var (
	replayFlags       streamFlags
	replayProfile     string
	replayProfileFile string
)

var replayCmd = &cobra.Command{
	Use:   "replay [transcript]",
	Short: "Normalize a captured SSE transcript",
	Long: `Replay reads a raw SSE transcript (a file, or stdin when no file or "-" is
given) and prints the canonical events. The profile is a vendor adapter name,
a built-in generic profile, or a YAML profile file.`,
	Example: `  aistream replay --profile anthropic capture.sse
  curl -N ... | aistream replay --profile openai-compatible --collect
  aistream replay --profile-file my-vendor.yaml capture.sse`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := resolveProfile(replayProfile, replayProfileFile)
		if err != nil {
			return err
		}
		observer, err := newObserver(cmd)
		if err != nil {
			return err
		}

		body := io.NopCloser(cmd.InOrStdin())
		if len(args) == 1 && args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open transcript: %w", err)
			}
			body = file
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s := stream.Normalize(ctx, body, profile, replayFlags.options(observer)...)
		return printStream(cmd.OutOrStdout(), s, replayFlags.collect)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayProfile, "profile", "p", "", "Vendor or built-in profile name (see 'aistream profiles')")
	replayCmd.Flags().StringVar(&replayProfileFile, "profile-file", "", "YAML profile file")
	replayFlags.register(replayCmd)
}
