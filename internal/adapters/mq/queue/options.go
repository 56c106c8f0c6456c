package queue

type settings struct {
	capacity int
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*settings)

// WithCapacity sets the maximum number of queued jobs.
func WithCapacity(capacity int) Option {
	return func(s *settings) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}
