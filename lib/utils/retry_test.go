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
	"errors"
	"time"

	"github.com/gravitational/trace"
	"gopkg.in/check.v1"
)

type RetrySuite struct{}

var _ = check.Suite(&RetrySuite{})

func (s *RetrySuite) TestPolicyCheck(c *check.C) {
	c.Assert(RetryPolicy{Interval: time.Second, MaxAttempts: 1}.Check(), check.IsNil)
	c.Assert(trace.IsBadParameter(RetryPolicy{MaxAttempts: 1}.Check()), check.Equals, true)
	c.Assert(trace.IsBadParameter(RetryPolicy{Interval: time.Second}.Check()), check.Equals, true)
}

func (s *RetrySuite) TestExhaustsAttempts(c *check.C) {
	policy := RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3}
	attempts := 0
	err := RetryWithInterval(context.TODO(), policy.BackOff(), func() error {
		attempts++
		return trace.LimitExceeded("throttled")
	})
	c.Assert(trace.IsLimitExceeded(err), check.Equals, true)
	c.Assert(attempts, check.Equals, 3)
}

func (s *RetrySuite) TestStopsOnPermanentError(c *check.C) {
	policy := RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3}
	attempts := 0
	err := RetryWithInterval(context.TODO(), policy.BackOff(), func() error {
		attempts++
		return Permanent(trace.AccessDenied("denied"))
	})
	c.Assert(trace.IsAccessDenied(err), check.Equals, true)
	c.Assert(attempts, check.Equals, 1)
}

func (s *RetrySuite) TestSucceedsAfterRetry(c *check.C) {
	policy := RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3}
	attempts := 0
	err := RetryWithInterval(context.TODO(), policy.BackOff(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	c.Assert(err, check.IsNil)
	c.Assert(attempts, check.Equals, 2)
}
