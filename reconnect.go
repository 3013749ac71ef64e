package maestro

import "time"

// retryPolicy schedules reconnect attempts at a fixed delay up to an
// attempt cap. The delay is constant between attempts, not exponential.
type retryPolicy struct {
	delay       time.Duration
	maxAttempts int
	attempts    int
}

func newRetryPolicy(delay time.Duration, maxAttempts int) *retryPolicy {
	return &retryPolicy{delay: delay, maxAttempts: maxAttempts}
}

// fail records a failed attempt. It returns the delay to wait before the
// next attempt, or false when the attempt budget is exhausted.
func (r *retryPolicy) fail() (time.Duration, bool) {
	r.attempts++
	if r.attempts >= r.maxAttempts {
		return 0, false
	}
	return r.delay, true
}

// reset clears the failure count after a successful connection.
func (r *retryPolicy) reset() {
	r.attempts = 0
}

// count returns the number of failed attempts so far.
func (r *retryPolicy) count() int {
	return r.attempts
}
