package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "franchise-catalog context key " + string(c)
}

const (
	// RequestIDKey carries the per-request correlation id set by the HTTP layer.
	RequestIDKey = contextKey("requestID")
	// SubjectKey carries the authenticated subject (JWT "sub") for mutating requests.
	SubjectKey = contextKey("subject")

	FranchiseIDKey = contextKey("franchiseID")
	BranchIDKey    = contextKey("branchID")
	ProductIDKey   = contextKey("productID")

	// ComponentKey and OperationKey are used by the logger to tag entries.
	ComponentKey = contextKey("component")
	OperationKey = contextKey("operation")
)
