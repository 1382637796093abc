package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for the transport layer.
type Kind int

const (
	// KindInvalidRequest covers malformed requests: empty question, empty
	// kb list, out-of-range pagination. Never retried.
	KindInvalidRequest Kind = iota + 1

	// KindUnauthorized means the caller's tenants own none of one or more
	// requested knowledge bases. The message deliberately does not say
	// which ones.
	KindUnauthorized

	// KindNotFound means the primary knowledge base id does not resolve.
	KindNotFound

	// KindModelNotBound means the mandatory embedding model could not be
	// resolved for the owning tenant. Optional roles never produce this.
	KindModelNotBound

	// KindBackend means the selected retrieval backend failed or timed out.
	KindBackend
)

// String returns the kind's wire name.
func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindModelNotBound:
		return "model_not_bound"
	case KindBackend:
		return "backend_failure"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error, or 0 when it is not a pipeline
// error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return 0
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Msg: fmt.Sprintf(format, args...)}
}

// errUnauthorized carries a fixed generic denial so the response cannot
// leak which knowledge base failed the check.
func errUnauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Msg: "caller is not authorized for the requested knowledge bases"}
}

func notFound(kbID string, err error) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("knowledge base %s", kbID), Err: err}
}

func modelNotBound(err error) *Error {
	return &Error{Kind: KindModelNotBound, Msg: "embedding model unresolvable for owning tenant", Err: err}
}

func backendFailure(err error) *Error {
	return &Error{Kind: KindBackend, Msg: "retrieval backend failed", Err: err}
}
