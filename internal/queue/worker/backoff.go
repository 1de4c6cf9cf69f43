package worker

import "time"

// Backoff returns the retry delay after the given attempt number
// (1-based). The sequence is 1s, 2s, 4s, doubling each time, capped
// so a misconfigured max_attempts cannot schedule a job into next week.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	capDelay := 5 * time.Minute

	delay := time.Second << (attempt - 1)

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	return delay
}
