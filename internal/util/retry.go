package util

import "time"

// RetryErr runs fn up to maxTries times, sleeping delay between attempts.
// It returns the last error when every attempt fails. maxTries below 1 is
// treated as a single attempt.
func RetryErr(maxTries int, delay time.Duration, fn func() error) error {
	if maxTries < 1 {
		maxTries = 1
	}

	var err error
	for attempt := 1; attempt <= maxTries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt < maxTries {
			time.Sleep(delay)
		}
	}
	return err
}
