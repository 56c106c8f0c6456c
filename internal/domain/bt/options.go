package bt

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithAbilityPrior sets the prior standard deviation of team ability.
func WithAbilityPrior(sd float64) Option {
	return func(m *Model) {
		if sd > 0 {
			m.abilitySD = sd
		}
	}
}

// WithInterceptPrior sets the prior standard deviation of the home intercept.
func WithInterceptPrior(sd float64) Option {
	return func(m *Model) {
		if sd > 0 {
			m.gammaSD = sd
		}
	}
}
