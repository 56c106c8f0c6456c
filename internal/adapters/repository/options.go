package repository

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithReadOnly opens the database file in read-only access mode. Several
// read-only processes may share one file.
func WithReadOnly() Option {
	return func(s *Store) {
		s.readOnly = true
	}
}

// WithThreads caps the number of DuckDB worker threads.
func WithThreads(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.threads = n
		}
	}
}
