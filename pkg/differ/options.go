package differ

// Option is a functional option for configuring Differ.
type Option func(*differ)

// WithIgnoredFields sets record fields to ignore during comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithDistanceTolerance sets how many meters two recorded distances may
// differ and still be equal.
func WithDistanceTolerance(meters float64) Option {
	return func(d *differ) {
		if meters >= 0 {
			d.tolerance = meters
		}
	}
}
