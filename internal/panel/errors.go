package panel

import "errors"

// Error kinds shared by every component.
var (
	ErrEmptyID          = errors.New("panel id is empty")
	ErrDuplicateID      = errors.New("panel id already exists")
	ErrUnknownPanel     = errors.New("unknown panel")
	ErrUnknownType      = errors.New("unknown panel type")
	ErrNotUserCreatable = errors.New("panel type is not user creatable")
	ErrUnknownAttribute = errors.New("attribute not declared by panel type")
	ErrAttributeKind    = errors.New("attribute value does not fit declared kind")

	// ErrNoSuchSlot means a container was addressed by a slot key its type
	// does not declare.
	ErrNoSuchSlot = errors.New("no such slot")

	// ErrIndexGap means a list slot diff would leave indices that are not
	// contiguous from 0.
	ErrIndexGap = errors.New("slot diff leaves an index gap")

	// ErrCycleOrDepthExceeded marks a traversal branch abandoned by the cycle
	// or depth guard. It is logged, never returned from path resolution.
	ErrCycleOrDepthExceeded = errors.New("cycle or depth limit reached")
)
