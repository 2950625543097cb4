// Package openai streams OpenAI chat completions through the canonical event
// pipeline and waits on OpenAI's long-running tasks.
//
// [NewOpenAIProvider] reads OPENAI_API_KEY and OPENAI_API_BASE_URL from the
// environment. Any OpenAI-compatible server can be targeted with
// [OpenAIProvider.WithBaseURL].
//
// Chat completions report usage in a chunk after the finish reason, so the
// stream profile holds the finish event until [DONE] arrives. Video jobs and
// background responses are awaited with [OpenAIProvider.WaitForVideo] and
// [OpenAIProvider.WaitForResponse].
package openai
