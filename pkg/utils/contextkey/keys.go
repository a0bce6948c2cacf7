package contextkey

// key is a private type to avoid context key collisions across packages.
type key string

const (
	TraceID   key = "trace_id"
	RequestID key = "request_id"
	UserID    key = "user_id"
	UserRole  key = "user_role"
)

// String returns the plain name, used as the gin context key.
func (k key) String() string {
	return string(k)
}
