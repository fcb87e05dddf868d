package syncstore

import (
	"errors"
	"fmt"
)

// Kind classifies a SyncError.
type Kind int

const (
	// KindTransient is a retryable remote failure (timeout, connection). Cache untouched.
	KindTransient Kind = iota + 1
	// KindProtocol is a malformed remote response. Cache untouched.
	KindProtocol
	// KindCacheCorrupt means the local cache could not be read.
	KindCacheCorrupt
	// KindStoreTornDown means the store was used after Close.
	KindStoreTornDown
)

var (
	ErrTransient     = errors.New("transient remote failure")
	ErrProtocol      = errors.New("malformed remote response")
	ErrCacheCorrupt  = errors.New("local cache unreadable")
	ErrStoreTornDown = errors.New("store torn down")
)

// Errors returned by collaborators.
var (
	// ErrMalformed is wrapped by remote sources when a response cannot be understood.
	ErrMalformed = errors.New("malformed batch")
	// ErrCacheMiss is returned by LocalCache.Load when nothing has been saved.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCorrupt is wrapped by LocalCache.Load when stored data cannot be decoded.
	ErrCorrupt = errors.New("corrupt cache data")
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindProtocol:
		return "protocol"
	case KindCacheCorrupt:
		return "cache_corrupt"
	case KindStoreTornDown:
		return "store_torn_down"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindTransient:
		return ErrTransient
	case KindProtocol:
		return ErrProtocol
	case KindCacheCorrupt:
		return ErrCacheCorrupt
	case KindStoreTornDown:
		return ErrStoreTornDown
	}

	return nil
}

// SyncError is the error type returned across the Store boundary.
// errors.Is matches it against the Err* sentinel of its kind as well as the cause.
type SyncError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind.sentinel())
	}

	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the kind of a SyncError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind, true
	}

	return 0, false
}

// IsRetryable reports whether a later refresh might succeed.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindTransient
}

func classifyFetch(err error) Kind {
	if errors.Is(err, ErrMalformed) {
		return KindProtocol
	}

	return KindTransient
}

func tornDown(op string) error {
	return &SyncError{Kind: KindStoreTornDown, Op: op}
}
