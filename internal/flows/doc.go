// Package flows contains the pure orchestration logic for recovery-code
// operations. Each flow receives its collaborators through a Deps struct so
// it can be unit-tested without Redis or a real credential store, and so the
// root package stays free of import cycles.
package flows
