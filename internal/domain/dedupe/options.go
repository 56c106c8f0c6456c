package dedupe

type settings struct {
	seed     []int64
	capacity int
}

// Option configures New.
type Option func(*settings)

// WithSeed pre-records ids, typically the games that already have a score.
func WithSeed(ids []int64) Option {
	return func(s *settings) {
		s.seed = append(s.seed, ids...)
	}
}

// WithCapacity pre-sizes the set for the expected number of games.
func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}
