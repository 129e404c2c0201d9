package omclient

import "errors"

var (
	// ErrNilBackend indicates a nil backend was provided at construction.
	ErrNilBackend = errors.New("omclient: backend cannot be nil")
	// ErrNilPlan indicates a query was created without a plan.
	ErrNilPlan = errors.New("omclient: query plan cannot be nil")
	// ErrNilSchema indicates a query was created without a schema.
	ErrNilSchema = errors.New("omclient: schema cannot be nil")
	// ErrKindMismatch indicates an entry point was invoked with a plan of
	// an incompatible query kind.
	ErrKindMismatch = errors.New("omclient: plan kind does not match operation")
)
