// Package assistant coordinates medical-education AI responses across an
// ordered chain of interchangeable backends.
//
// The [Coordinator] walks its chain in priority order, skipping backends that
// report themselves unavailable or out of quota, and returns the first
// response that passes quality validation. When every backend is skipped or
// fails, it degrades to a static professional-consultation response rather
// than surfacing an error; [Coordinator.Process] never returns one.
//
// Responses are post-processed with deterministic heuristics: a confidence
// score derived from hedging and certainty language, an urgency level from
// keyword scanning, and mandatory safety disclaimers. All keyword tables live
// in [Lexicon] and are injectable for testing.
//
// # What this package must NOT do
//
//   - Diagnose. Every response carries the professional-consultation
//     disclaimers regardless of backend output.
//   - Retry a failed backend within a single request. Fallback moves down
//     the chain; it never loops.
//   - Persist conversation state. Callers own history and pass it per call.
package assistant
