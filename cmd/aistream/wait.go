package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/aistream/core/poll"
	"github.com/leofalp/aistream/providers/ai/anthropic"
	"github.com/leofalp/aistream/providers/ai/gemini"
	"github.com/leofalp/aistream/providers/ai/openai"
	"github.com/leofalp/aistream/providers/observability"
)

var (
	waitInterval    time.Duration
	waitTimeout     time.Duration
	waitMaxAttempts int
)

// waiters maps "<vendor> <kind>" to the task waiter. Each returns the final
// task status object, printed as JSON.
var waiters = map[string]func(ctx context.Context, id string, opts ...poll.Option) (any, error){
	"openai video": func(ctx context.Context, id string, opts ...poll.Option) (any, error) {
		return taskResult[openai.Video](openai.NewOpenAIProvider().WaitForVideo(ctx, id, opts...))
	},
	"openai response": func(ctx context.Context, id string, opts ...poll.Option) (any, error) {
		return taskResult[openai.Response](openai.NewOpenAIProvider().WaitForResponse(ctx, id, opts...))
	},
	"anthropic batch": func(ctx context.Context, id string, opts ...poll.Option) (any, error) {
		return taskResult[anthropic.MessageBatch](anthropic.New().WaitForBatch(ctx, id, opts...))
	},
	"gemini operation": func(ctx context.Context, id string, opts ...poll.Option) (any, error) {
		return taskResult[gemini.Operation](gemini.New().WaitForOperation(ctx, id, opts...))
	},
}

// taskResult keeps a nil status pointer from turning into a non-nil any.
func taskResult[T any](status *T, err error) (any, error) {
	if status == nil {
		return nil, err
	}
	return status, err
}

var waitCmd = &cobra.Command{
	Use:   "wait <vendor> <kind> <id>",
	Short: "Wait for a vendor long-running task to finish",
	Long: `Wait polls a vendor task until it reaches a terminal status and prints the
final status object. Supported tasks:

  openai video <video_id>
  openai response <response_id>
  anthropic batch <batch_id>
  gemini operation <operation_name>

Without --interval the wait grows from 1s by 1.5x up to 10s.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0] + " " + args[1]
		wait, ok := waiters[key]
		if !ok {
			return fmt.Errorf("unsupported task %q", key)
		}
		observer, err := newObserver(cmd)
		if err != nil {
			return err
		}

		opts := []poll.Option{poll.WithObserver(observer)}
		if waitInterval > 0 {
			opts = append(opts, poll.WithInterval(poll.Fixed(waitInterval)))
		}
		if waitTimeout > 0 {
			opts = append(opts, poll.WithTimeout(waitTimeout))
		}
		if waitMaxAttempts > 0 {
			opts = append(opts, poll.WithMaxAttempts(waitMaxAttempts))
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = observability.ContextWithObserver(ctx, observer)

		status, err := wait(ctx, args[2], opts...)
		if status != nil {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if encodeErr := encoder.Encode(status); encodeErr != nil {
				return encodeErr
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().DurationVar(&waitInterval, "interval", 0, "Fixed wait between status checks")
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "Give up after this long (0 waits indefinitely)")
	waitCmd.Flags().IntVar(&waitMaxAttempts, "max-attempts", 0, "Give up after this many checks (0 is unlimited)")
}
