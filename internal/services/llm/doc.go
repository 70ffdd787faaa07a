// Package llm provides an OpenAI-compatible chat client for JSON-mode
// completions. The LLM batch agent uses it to analyze frame batches, and the
// doctor command uses HealthCheck to verify credentials.
//
// Requests go through github.com/sashabaranov/go-openai. The configured base
// URL is the API root (https://openrouter.ai/api/v1 by default); a trailing
// /chat/completions is tolerated. OpenRouter attribution headers (HTTP-Referer,
// X-Title) are added by a wrapping transport.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.CompleteJSONWithImages: same, with frames attached as inline images.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode a response, tolerating code fences and stray prose.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). A Retry-After header overrides the backoff.
// Context cancellation aborts retries immediately.
package llm
