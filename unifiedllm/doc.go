// Package unifiedllm provides a provider-agnostic LLM client used as the
// model transport for the edit loop. It presents typed messages, tool
// definitions, and a lazy stream of output fragments (text deltas, tool
// call events, a finish event carrying the finalized response) over two
// interchangeable backends: gollm for OpenAI and the Google Gen AI SDK for
// Gemini.
//
// Provider selection is a process-wide strategy chosen once at startup via
// NewClientForProvider; recognized providers are "openai" and "google".
// Blocking requests pass through a retry middleware with exponential
// backoff; streams are never retried because a consumed fragment sequence
// is not restartable.
package unifiedllm
