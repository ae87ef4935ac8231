// Package dispatch implements provider selection and failover for
// Meridian's virtual endpoints.
//
// A dispatch walks the endpoint's candidate list, which is the live
// providers in the endpoint's selection order: configured order for
// ordered endpoints, a fresh uniform permutation for random ones. Each
// candidate is attempted in turn until one succeeds, one fails in a way
// that must be surfaced to the caller, or the list runs out.
//
// Failure handling follows the provider error taxonomy:
//
//   - Credential rejections, rate limits, 5xx responses, timeouts, and
//     transport failures mark the provider dead and fail over to the next
//     candidate.
//   - Any other client-class (4xx) response is the caller's fault as seen
//     by that provider: it is returned for verbatim forwarding, the
//     provider stays live, and no further candidates are attempted.
//
// Candidate exhaustion is reported as ErrNoProviders regardless of why
// each candidate failed, so callers cannot distinguish "all dead on
// arrival" from "all died trying".
//
// Streams are dispatched the same way up to the point the upstream
// response opens; once relay begins, a failure belongs to RecordStreamFailure,
// which marks the provider dead without any further fallback.
package dispatch
