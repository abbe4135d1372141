/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// RetryPolicy bounds a polling loop: the loop makes at most
// MaxAttempts attempts sleeping for Interval between them
type RetryPolicy struct {
	// Interval is the fixed delay between two attempts
	Interval time.Duration
	// MaxAttempts is the maximum number of attempts
	MaxAttempts int
}

// Check validates the policy
func (r RetryPolicy) Check() error {
	if r.Interval <= 0 {
		return trace.BadParameter("retry interval must be positive, got %v", r.Interval)
	}
	if r.MaxAttempts < 1 {
		return trace.BadParameter("retry attempts must be at least 1, got %v", r.MaxAttempts)
	}
	return nil
}

// BackOff returns a constant backoff interval that allows exactly
// MaxAttempts attempts
func (r RetryPolicy) BackOff() backoff.BackOff {
	retries := 0
	if r.MaxAttempts > 1 {
		retries = r.MaxAttempts - 1
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(r.Interval), uint64(retries))
}

// Permanent marks the error as not retriable for RetryWithInterval
func Permanent(err error) error {
	return &backoff.PermanentError{Err: err}
}

// RetryWithInterval retries the specified operation fn using the specified backoff interval.
// fn should return an error created with Permanent if the error
// should not be retried and returned directly.
// Returns nil on success or the last received error upon exhausting the interval.
func RetryWithInterval(ctx context.Context, interval backoff.BackOff, fn func() error) error {
	b := backoff.WithContext(interval, ctx)
	err := backoff.RetryNotify(fn, b, func(err error, d time.Duration) {
		log.WithError(err).Infof("Retrying in %v.", d)
	})
	if err != nil {
		log.WithError(err).Debug("All attempts failed.")
		return trace.Wrap(err)
	}
	return nil
}
