// Package anthropic streams Anthropic Messages responses through the canonical
// event pipeline and waits on message batches.
//
// The primary entry point is [New], which reads ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL from the environment. Use [AnthropicProvider.WithAPIKey],
// [AnthropicProvider.WithBaseURL], or [AnthropicProvider.WithHttpClient] to configure
// the provider programmatically.
//
// Messages streams are framed as event blocks. Tool calls are announced by
// content_block_start and their arguments arrive as input_json_delta
// fragments addressed only by block index. Thinking deltas are skipped.
package anthropic
