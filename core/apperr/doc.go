// Package apperr defines the error taxonomy shared by every engine operation.
//
// Callers receive a tagged outcome, never a bare boolean or a panic across
// the boundary. The fixed kinds are:
//
//   - validation: bad input, rejected before any store I/O
//   - conflict: duplicate names or ambiguous matches, surfaced for explicit
//     resolution and never auto-resolved
//   - invalid_transition: state machine violation, fatal to that call only
//   - not_found
//   - transient: store timeout/connection failure, retryable by the caller
//   - partial: bulk operation with both succeeded and failed subsets
//
// HTTP handlers translate kinds to status codes via HTTPStatus.
package apperr
