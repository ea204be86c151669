package resilience

// FromMaxRetries builds a default policy allowing maxRetries retries after
// the first try. Non-positive values keep the default.
func FromMaxRetries(maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries > 0 {
		p.Attempts = maxRetries + 1
	}
	return p
}
