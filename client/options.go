package omclient

// Logger represents the minimal logging interface used by the client.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Option configures a Client during construction.
type Option func(*Client)

// WithLogger registers a logger for query lifecycle events.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDefaultLimit overrides the page size used when neither the caller nor
// the plan supplies one.
func WithDefaultLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.defaultLimit = limit
		}
	}
}

// ExecOption configures a single query execution.
type ExecOption func(*execState)

type execState struct {
	page     *Pageable
	language string
}

// WithPageable supplies explicit pagination, taking precedence over the
// plan's static offset and limit.
func WithPageable(p Pageable) ExecOption {
	return func(st *execState) {
		st.page = &p
	}
}

// WithLanguage attaches a language hint to the search call.
func WithLanguage(language string) ExecOption {
	return func(st *execState) {
		st.language = language
	}
}
