package assistant

import "context"

// Backend is a single AI service the coordinator can route a request to.
// Implementations must be safe for concurrent use.
type Backend interface {
	// ID returns the stable backend identifier recorded in Result.ServiceUsed
	// and as the key of Result.Errors.
	ID() string

	// Available reports whether the backend is currently able to serve
	// requests. Implementations should answer cheaply; the coordinator
	// caches the result for a short TTL.
	Available(ctx context.Context) bool

	// Send submits the request and returns the raw backend output. The
	// coordinator applies its own timeout through ctx.
	Send(ctx context.Context, req Request) (*RawResponse, error)
}

// QuotaReporter is optionally implemented by backends that can report
// remaining request quota. A backend reporting zero is skipped for the
// request, not failed.
type QuotaReporter interface {
	RemainingQuota(ctx context.Context) (int, error)
}

// Request carries one user turn to a backend.
type Request struct {
	// Prompt is the user's question or instruction.
	Prompt string

	// Context is prior conversation or case context, already flattened by
	// the caller.
	Context string

	// Images holds raw image bytes for vision requests, empty otherwise.
	Images [][]byte
}

// RawResponse is the unprocessed backend output before heuristics run.
type RawResponse struct {
	Text string
}
