// Package gemini streams Google Gemini generateContent responses through the
// canonical event pipeline and waits on long-running operations.
//
// [New] reads GEMINI_API_KEY, GEMINI_API_BASE_URL and GEMINI_MODEL from the
// environment. [GeminiProvider.Stream] uses the configured model;
// [GeminiProvider.StreamModel] picks one per call.
//
// Each SSE chunk is a complete generateContentResponse whose text parts are
// incremental. Thought parts are skipped and function calls, which Gemini sends
// whole, become single-fragment tool calls numbered in arrival order.
package gemini
