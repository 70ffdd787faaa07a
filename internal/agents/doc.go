// Package agents turns sampled frames and a transcript into per-batch analysis
// requests, sends them to an Agent one at a time, and merges the answers.
//
// The flow is:
//
//  1. Partition splits the ordered frames into at most `workers` contiguous,
//     non-empty batches whose sizes differ by at most one.
//  2. BuildBatches stamps each slice with its frame offsets, its time window
//     ([start_frame/fps, (end_frame+1)/fps)) and the transcript segments that
//     overlap that window.
//  3. Prompter renders the embedded prompt templates, including the
//     focus-specific instructions of the workflow.
//  4. Coordinator.Dispatch invokes the Agent for each batch in order and
//     enforces the response contract with DecodeResponse.
//  5. Aggregate concatenates findings, orders correlations by timestamp and
//     writes the executive summary.
//
// Two agents ship with the package: PlaceholderAgent, which returns an empty
// but well-formed record, and LLMAgent, which sends the prompt (optionally
// with the frames attached) to an OpenAI-compatible chat API.
package agents
