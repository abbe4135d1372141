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

package handoff

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gravitational/fleetkeeper/lib/constants"
	"github.com/gravitational/fleetkeeper/lib/events"
	"github.com/gravitational/fleetkeeper/lib/utils"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"gopkg.in/check.v1"
)

func TestHandoff(t *testing.T) { check.TestingT(t) }

type HandoffSuite struct {
	clock clockwork.FakeClock
}

var _ = check.Suite(&HandoffSuite{})

func (s *HandoffSuite) SetUpTest(c *check.C) {
	s.clock = clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
}

func (s *HandoffSuite) TestValidatesConfig(c *check.C) {
	_, err := New(Config{AutoScaling: &mockAutoScaling{}})
	c.Assert(trace.IsBadParameter(err), check.Equals, true)
	_, err = New(Config{Cloud: newMockEC2()})
	c.Assert(trace.IsBadParameter(err), check.Equals, true)
	_, err = New(Config{
		Cloud:       newMockEC2(),
		AutoScaling: &mockAutoScaling{},
		Poll:        utils.RetryPolicy{Interval: time.Second},
	})
	c.Assert(trace.IsBadParameter(err), check.Equals, true)

	r, err := New(Config{Cloud: newMockEC2(), AutoScaling: &mockAutoScaling{}})
	c.Assert(err, check.IsNil)
	c.Assert(r.Device, check.Equals, "/dev/xvdf")
	c.Assert(r.VolumeTags, check.DeepEquals, map[string]string{"Persistent": "true", "AutoAttach": "true"})
	c.Assert(r.Poll, check.Equals, utils.RetryPolicy{Interval: 5 * time.Second, MaxAttempts: 30})
}

func (s *HandoffSuite) TestTestNotification(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	r := s.newReactor(c, cloud, asg)

	resp, err := r.Handle(context.TODO(), newSNSEvent(c, events.LifecycleNotice{
		Event: constants.TestNotification,
	}))
	c.Assert(err, check.IsNil)
	c.Assert(resp.StatusCode, check.Equals, http.StatusOK)
	c.Assert(resp.Body, check.Equals, MessageTestNotification)
	c.Assert(cloud.callLog(), check.HasLen, 0)
	c.Assert(asg.completed(), check.HasLen, 0)
}

func (s *HandoffSuite) TestIgnoresTerminatingTransition(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	r := s.newReactor(c, cloud, asg)

	notice := newNotice()
	notice.Transition = constants.InstanceTerminating
	result, err := r.Handoff(context.TODO(), notice)
	c.Assert(err, check.IsNil)
	c.Assert(result.Outcome, check.Equals, OutcomeSkipped)
	c.Assert(cloud.callLog(), check.HasLen, 0)
	c.Assert(asg.completed(), check.HasLen, 0)
}

func (s *HandoffSuite) TestMalformedNotice(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	r := s.newReactor(c, cloud, asg)

	resp, err := r.Handle(context.TODO(), lambdaevents.SNSEvent{
		Records: []lambdaevents.SNSEventRecord{{SNS: lambdaevents.SNSEntity{Message: "{"}}},
	})
	c.Assert(err, check.NotNil)
	c.Assert(resp, check.IsNil)
	c.Assert(asg.completed(), check.HasLen, 0)
}

func (s *HandoffSuite) TestVolumeNotFoundAbandons(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	r := s.newReactor(c, cloud, asg)

	resp, err := r.Handle(context.TODO(), newSNSEvent(c, newNotice()))
	c.Assert(err, check.IsNil)
	c.Assert(resp.StatusCode, check.Equals, http.StatusInternalServerError)
	c.Assert(resp.Body, check.Equals, MessageVolumeNotFound)

	completed := asg.completed()
	c.Assert(completed, check.HasLen, 1)
	c.Assert(*completed[0], check.DeepEquals, autoscaling.CompleteLifecycleActionInput{
		AutoScalingGroupName:  aws.String("game-servers"),
		LifecycleHookName:     aws.String("attach-volume"),
		InstanceId:            aws.String("i-new"),
		LifecycleActionToken:  aws.String("token-1"),
		LifecycleActionResult: aws.String("ABANDON"),
	})

	describe := cloud.describeVolumesInput()
	c.Assert(describe, check.NotNil)
	c.Assert(describe.Filters, check.DeepEquals, []*ec2.Filter{
		{Name: aws.String("tag:AutoAttach"), Values: aws.StringSlice([]string{"true"})},
		{Name: aws.String("tag:Persistent"), Values: aws.StringSlice([]string{"true"})},
	})
}

func (s *HandoffSuite) TestAttachesAvailableVolume(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	r := s.newReactor(c, cloud, asg)

	resp, err := r.Handle(context.TODO(), newSNSEvent(c, newNotice()))
	c.Assert(err, check.IsNil)
	c.Assert(resp.StatusCode, check.Equals, http.StatusOK)
	var body attachedBody
	c.Assert(json.Unmarshal([]byte(resp.Body), &body), check.IsNil)
	c.Assert(body, check.DeepEquals, attachedBody{InstanceID: "i-new", VolumeID: "vol-1", Status: "attached"})

	c.Assert(cloud.callLog(), check.DeepEquals, []string{
		"DescribeVolumes",
		"WaitUntilInstanceRunning",
		"DescribeInstances",
		"AttachVolume",
		"WaitUntilVolumeInUse",
	})
	attach := cloud.attachInputs()
	c.Assert(attach, check.HasLen, 1)
	c.Assert(*attach[0], check.DeepEquals, ec2.AttachVolumeInput{
		VolumeId:   aws.String("vol-1"),
		InstanceId: aws.String("i-new"),
		Device:     aws.String("/dev/xvdf"),
	})
	completed := asg.completed()
	c.Assert(completed, check.HasLen, 1)
	c.Assert(aws.StringValue(completed[0].LifecycleActionResult), check.Equals, "CONTINUE")
}

func (s *HandoffSuite) TestDetachesBeforeAttach(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateInUse, "i-old")}
	r := s.newReactor(c, cloud, asg)

	result, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(err, check.IsNil)
	c.Assert(result.Outcome, check.Equals, OutcomeAttached)
	c.Assert(cloud.callLog(), check.DeepEquals, []string{
		"DescribeVolumes",
		"DetachVolume",
		"WaitUntilVolumeAvailable",
		"WaitUntilInstanceRunning",
		"DescribeInstances",
		"AttachVolume",
		"WaitUntilVolumeInUse",
	})
	detach := cloud.detachInputs()
	c.Assert(detach, check.HasLen, 1)
	c.Assert(aws.StringValue(detach[0].VolumeId), check.Equals, "vol-1")
	c.Assert(aws.BoolValue(detach[0].Force), check.Equals, true)
	c.Assert(cloud.waiterAttempts(), check.DeepEquals, []int{3, 3, 3})
}

func (s *HandoffSuite) TestWaitsForDetachingVolume(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	volume := newVolume("vol-1", ec2.VolumeStateInUse, "i-old")
	volume.Attachments[0].State = aws.String(ec2.VolumeAttachmentStateDetaching)
	cloud.volumes = []*ec2.Volume{volume}
	r := s.newReactor(c, cloud, asg)

	_, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(err, check.IsNil)
	c.Assert(cloud.detachInputs(), check.HasLen, 0)
	c.Assert(cloud.callLog()[1], check.Equals, "WaitUntilVolumeAvailable")
}

func (s *HandoffSuite) TestAlreadyAttached(c *check.C) {
	for _, state := range []string{
		ec2.VolumeAttachmentStateAttached,
		ec2.VolumeAttachmentStateAttaching,
	} {
		cloud, asg := newMockEC2(), &mockAutoScaling{}
		volume := newVolume("vol-1", ec2.VolumeStateInUse, "i-new")
		volume.Attachments[0].State = aws.String(state)
		cloud.volumes = []*ec2.Volume{volume}
		r := s.newReactor(c, cloud, asg)

		result, err := r.Handoff(context.TODO(), newNotice())
		c.Assert(err, check.IsNil, check.Commentf(state))
		c.Assert(result.Outcome, check.Equals, OutcomeAttached)
		c.Assert(cloud.callLog(), check.DeepEquals, []string{"DescribeVolumes", "WaitUntilVolumeInUse"})
		completed := asg.completed()
		c.Assert(completed, check.HasLen, 1)
		c.Assert(aws.StringValue(completed[0].LifecycleActionResult), check.Equals, "CONTINUE")
	}
}

func (s *HandoffSuite) TestAttachingToInstanceNeverInUseAbandons(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	volume := newVolume("vol-1", ec2.VolumeStateInUse, "i-new")
	volume.Attachments[0].State = aws.String(ec2.VolumeAttachmentStateAttaching)
	cloud.volumes = []*ec2.Volume{volume}
	cloud.errs["WaitUntilVolumeInUse"] = awserr.New(request.WaiterResourceNotReadyErrorCode,
		"exceeded wait attempts", nil)
	r := s.newReactor(c, cloud, asg)

	result, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(trace.IsLimitExceeded(err), check.Equals, true, check.Commentf("%v", err))
	c.Assert(result.Outcome, check.Equals, OutcomeAbandoned)
	completed := asg.completed()
	c.Assert(completed, check.HasLen, 1)
	c.Assert(aws.StringValue(completed[0].LifecycleActionResult), check.Equals, "ABANDON")
}

func (s *HandoffSuite) TestDetachesBusyVolume(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	volume := newVolume("vol-1", ec2.VolumeStateInUse, "i-old")
	volume.Attachments[0].State = aws.String(ec2.VolumeAttachmentStateBusy)
	cloud.volumes = []*ec2.Volume{volume}
	r := s.newReactor(c, cloud, asg)

	result, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(err, check.IsNil)
	c.Assert(result.Outcome, check.Equals, OutcomeAttached)
	detach := cloud.detachInputs()
	c.Assert(detach, check.HasLen, 1)
	c.Assert(aws.BoolValue(detach[0].Force), check.Equals, true)
	c.Assert(cloud.callLog()[:3], check.DeepEquals, []string{
		"DescribeVolumes",
		"DetachVolume",
		"WaitUntilVolumeAvailable",
	})
}

func (s *HandoffSuite) TestUsesFirstOfMultipleVolumes(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{
		newVolume("vol-1", ec2.VolumeStateAvailable, ""),
		newVolume("vol-2", ec2.VolumeStateAvailable, ""),
	}
	r := s.newReactor(c, cloud, asg)

	result, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(err, check.IsNil)
	c.Assert(result.VolumeID, check.Equals, "vol-1")
}

func (s *HandoffSuite) TestInstanceNeverRunningAbandons(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	cloud.errs["WaitUntilInstanceRunning"] = awserr.New(request.WaiterResourceNotReadyErrorCode,
		"exceeded wait attempts", nil)
	r := s.newReactor(c, cloud, asg)

	result, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(trace.IsLimitExceeded(err), check.Equals, true, check.Commentf("%v", err))
	c.Assert(result.Outcome, check.Equals, OutcomeAbandoned)
	c.Assert(result.Compensation.Attempted, check.Equals, true)
	c.Assert(result.Compensation.Err, check.IsNil)
	c.Assert(cloud.attachInputs(), check.HasLen, 0)
	c.Assert(cloud.waiterAttempts(), check.DeepEquals, []int{3})

	completed := asg.completed()
	c.Assert(completed, check.HasLen, 1)
	c.Assert(aws.StringValue(completed[0].LifecycleActionResult), check.Equals, "ABANDON")
}

func (s *HandoffSuite) TestAttachConflictAbandons(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	cloud.errs["AttachVolume"] = awserr.New("VolumeInUse", "vol-1 is already attached to an instance", nil)
	r := s.newReactor(c, cloud, asg)

	resp, err := r.Handle(context.TODO(), newSNSEvent(c, newNotice()))
	c.Assert(trace.IsCompareFailed(err), check.Equals, true, check.Commentf("%v", err))
	c.Assert(resp, check.IsNil)
	completed := asg.completed()
	c.Assert(completed, check.HasLen, 1)
	c.Assert(aws.StringValue(completed[0].LifecycleActionResult), check.Equals, "ABANDON")
}

func (s *HandoffSuite) TestZoneMismatchAbandons(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	cloud.zone = "us-east-1b"
	r := s.newReactor(c, cloud, asg)

	_, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(trace.IsCompareFailed(err), check.Equals, true, check.Commentf("%v", err))
	c.Assert(cloud.attachInputs(), check.HasLen, 0)
	c.Assert(asg.completed(), check.HasLen, 1)
}

func (s *HandoffSuite) TestAbandonFailureKeepsCause(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.errs["DescribeVolumes"] = awserr.New("UnauthorizedOperation", "not authorized", nil)
	asg.errs = []error{awserr.New("ValidationError", "no active lifecycle action", nil)}
	r := s.newReactor(c, cloud, asg)

	result, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(trace.IsAccessDenied(err), check.Equals, true, check.Commentf("%v", err))
	c.Assert(result.Compensation.Attempted, check.Equals, true)
	c.Assert(trace.IsBadParameter(result.Compensation.Err), check.Equals, true)
	c.Assert(asg.completed(), check.HasLen, 1)
}

func (s *HandoffSuite) TestRetriesThrottledCompletion(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	asg.errs = []error{awserr.New("Throttling", "rate exceeded", nil)}
	r := s.newReactor(c, cloud, asg)

	result, err := r.Handoff(context.TODO(), newNotice())
	c.Assert(err, check.IsNil)
	c.Assert(result.Outcome, check.Equals, OutcomeAttached)
	completed := asg.completed()
	c.Assert(completed, check.HasLen, 2)
	for _, input := range completed {
		c.Assert(aws.StringValue(input.LifecycleActionResult), check.Equals, "CONTINUE")
	}
}

func (s *HandoffSuite) TestOmitsEmptyToken(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	r := s.newReactor(c, cloud, asg)

	notice := newNotice()
	notice.Token = ""
	_, err := r.Handoff(context.TODO(), notice)
	c.Assert(err, check.IsNil)
	completed := asg.completed()
	c.Assert(completed, check.HasLen, 1)
	c.Assert(completed[0].LifecycleActionToken, check.IsNil)
}

func (s *HandoffSuite) TestRecordsHeartbeats(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{heartbeats: make(chan *autoscaling.RecordLifecycleActionHeartbeatInput, 10)}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	cloud.block = make(chan struct{})
	r, err := New(Config{
		Cloud:             cloud,
		AutoScaling:       asg,
		Poll:              utils.RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3},
		LifecycleRetry:    utils.RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3},
		HeartbeatInterval: 10 * time.Second,
		Clock:             s.clock,
	})
	c.Assert(err, check.IsNil)

	errC := make(chan error, 1)
	go func() {
		_, err := r.Handoff(context.TODO(), newNotice())
		errC <- err
	}()

	timeout := time.After(5 * time.Second)
loop:
	for {
		s.clock.Advance(10 * time.Second)
		select {
		case input := <-asg.heartbeats:
			c.Assert(aws.StringValue(input.InstanceId), check.Equals, "i-new")
			c.Assert(aws.StringValue(input.LifecycleActionToken), check.Equals, "token-1")
			break loop
		case <-time.After(10 * time.Millisecond):
		case <-timeout:
			c.Fatal("timeout waiting for heartbeat")
		}
	}
	close(cloud.block)

	select {
	case err := <-errC:
		c.Assert(err, check.IsNil)
	case <-timeout:
		c.Fatal("timeout waiting for handoff")
	}
	c.Assert(asg.completed(), check.HasLen, 1)
}

func (s *HandoffSuite) TestReservesTimeToAbandon(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	cloud.volumes = []*ec2.Volume{newVolume("vol-1", ec2.VolumeStateAvailable, "")}
	// never released: the wait ends with the work context
	cloud.block = make(chan struct{})
	r, err := New(Config{
		Cloud:               cloud,
		AutoScaling:         asg,
		Poll:                utils.RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3},
		LifecycleRetry:      utils.RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3},
		CompensationReserve: time.Second,
		Clock:               s.clock,
	})
	c.Assert(err, check.IsNil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second+50*time.Millisecond)
	defer cancel()
	result, err := r.Handoff(ctx, newNotice())
	c.Assert(err, check.NotNil)
	c.Assert(ctx.Err(), check.IsNil)
	c.Assert(result.Outcome, check.Equals, OutcomeAbandoned)
	c.Assert(result.Compensation.Err, check.IsNil)
	completed := asg.completed()
	c.Assert(completed, check.HasLen, 1)
	c.Assert(aws.StringValue(completed[0].LifecycleActionResult), check.Equals, "ABANDON")
}

func (s *HandoffSuite) TestAbandonsWithCanceledContext(c *check.C) {
	cloud, asg := newMockEC2(), &mockAutoScaling{}
	r := s.newReactor(c, cloud, asg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := r.Handoff(ctx, newNotice())
	c.Assert(trace.IsConnectionProblem(err), check.Equals, true, check.Commentf("%v", err))
	c.Assert(result.Compensation.Err, check.IsNil)
	c.Assert(asg.completed(), check.HasLen, 1)
}

func (s *HandoffSuite) newReactor(c *check.C, cloud *mockEC2, asg *mockAutoScaling) *Reactor {
	r, err := New(Config{
		Cloud:          cloud,
		AutoScaling:    asg,
		Poll:           utils.RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3},
		LifecycleRetry: utils.RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3},
		Clock:          s.clock,
	})
	c.Assert(err, check.IsNil)
	return r
}

func newNotice() events.LifecycleNotice {
	return events.LifecycleNotice{
		Transition:           constants.InstanceLaunching,
		InstanceID:           "i-new",
		HookName:             "attach-volume",
		AutoScalingGroupName: "game-servers",
		Token:                "token-1",
	}
}

func newSNSEvent(c *check.C, notice events.LifecycleNotice) lambdaevents.SNSEvent {
	return lambdaevents.SNSEvent{
		Records: []lambdaevents.SNSEventRecord{
			{SNS: lambdaevents.SNSEntity{Message: events.MustMarshalLifecycleNotice(notice)}},
		},
	}
}

func newVolume(id, state, instanceID string) *ec2.Volume {
	volume := &ec2.Volume{
		VolumeId:         aws.String(id),
		State:            aws.String(state),
		AvailabilityZone: aws.String("us-east-1a"),
	}
	if instanceID != "" {
		volume.Attachments = []*ec2.VolumeAttachment{{
			InstanceId: aws.String(instanceID),
			VolumeId:   aws.String(id),
			State:      aws.String(ec2.VolumeAttachmentStateAttached),
		}}
	}
	return volume
}

func newMockEC2() *mockEC2 {
	return &mockEC2{zone: "us-east-1a", errs: make(map[string]error)}
}

type mockEC2 struct {
	sync.Mutex
	volumes []*ec2.Volume
	zone    string
	errs    map[string]error
	// block holds WaitUntilInstanceRunning until closed
	block    chan struct{}
	calls    []string
	attempts []int
	describe *ec2.DescribeVolumesInput
	attach   []*ec2.AttachVolumeInput
	detach   []*ec2.DetachVolumeInput
}

func (m *mockEC2) record(ctx aws.Context, call string) error {
	m.Lock()
	defer m.Unlock()
	if err := ctx.Err(); err != nil {
		return awserr.New(request.CanceledErrorCode, "request context canceled", err)
	}
	m.calls = append(m.calls, call)
	return m.errs[call]
}

func (m *mockEC2) wait(ctx aws.Context, call string, opts []request.WaiterOption) error {
	w := request.Waiter{}
	w.ApplyOptions(opts...)
	m.Lock()
	m.attempts = append(m.attempts, w.MaxAttempts)
	m.Unlock()
	return m.record(ctx, call)
}

func (m *mockEC2) DescribeVolumesWithContext(ctx aws.Context, input *ec2.DescribeVolumesInput, opts ...request.Option) (*ec2.DescribeVolumesOutput, error) {
	if err := m.record(ctx, "DescribeVolumes"); err != nil {
		return nil, err
	}
	m.Lock()
	defer m.Unlock()
	m.describe = input
	return &ec2.DescribeVolumesOutput{Volumes: m.volumes}, nil
}

func (m *mockEC2) DescribeInstancesWithContext(ctx aws.Context, input *ec2.DescribeInstancesInput, opts ...request.Option) (*ec2.DescribeInstancesOutput, error) {
	if err := m.record(ctx, "DescribeInstances"); err != nil {
		return nil, err
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []*ec2.Reservation{{
			Instances: []*ec2.Instance{{
				InstanceId: input.InstanceIds[0],
				State:      &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameRunning)},
				Placement:  &ec2.Placement{AvailabilityZone: aws.String(m.zone)},
			}},
		}},
	}, nil
}

func (m *mockEC2) AttachVolumeWithContext(ctx aws.Context, input *ec2.AttachVolumeInput, opts ...request.Option) (*ec2.VolumeAttachment, error) {
	if err := m.record(ctx, "AttachVolume"); err != nil {
		return nil, err
	}
	m.Lock()
	defer m.Unlock()
	m.attach = append(m.attach, input)
	return &ec2.VolumeAttachment{State: aws.String(ec2.VolumeAttachmentStateAttaching)}, nil
}

func (m *mockEC2) DetachVolumeWithContext(ctx aws.Context, input *ec2.DetachVolumeInput, opts ...request.Option) (*ec2.VolumeAttachment, error) {
	if err := m.record(ctx, "DetachVolume"); err != nil {
		return nil, err
	}
	m.Lock()
	defer m.Unlock()
	m.detach = append(m.detach, input)
	return &ec2.VolumeAttachment{State: aws.String(ec2.VolumeAttachmentStateDetaching)}, nil
}

func (m *mockEC2) WaitUntilVolumeAvailableWithContext(ctx aws.Context, input *ec2.DescribeVolumesInput, opts ...request.WaiterOption) error {
	return m.wait(ctx, "WaitUntilVolumeAvailable", opts)
}

func (m *mockEC2) WaitUntilVolumeInUseWithContext(ctx aws.Context, input *ec2.DescribeVolumesInput, opts ...request.WaiterOption) error {
	return m.wait(ctx, "WaitUntilVolumeInUse", opts)
}

func (m *mockEC2) WaitUntilInstanceRunningWithContext(ctx aws.Context, input *ec2.DescribeInstancesInput, opts ...request.WaiterOption) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
		}
	}
	return m.wait(ctx, "WaitUntilInstanceRunning", opts)
}

func (m *mockEC2) callLog() []string {
	m.Lock()
	defer m.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockEC2) waiterAttempts() []int {
	m.Lock()
	defer m.Unlock()
	return append([]int(nil), m.attempts...)
}

func (m *mockEC2) describeVolumesInput() *ec2.DescribeVolumesInput {
	m.Lock()
	defer m.Unlock()
	return m.describe
}

func (m *mockEC2) attachInputs() []*ec2.AttachVolumeInput {
	m.Lock()
	defer m.Unlock()
	return append([]*ec2.AttachVolumeInput(nil), m.attach...)
}

func (m *mockEC2) detachInputs() []*ec2.DetachVolumeInput {
	m.Lock()
	defer m.Unlock()
	return append([]*ec2.DetachVolumeInput(nil), m.detach...)
}

type mockAutoScaling struct {
	sync.Mutex
	// errs are returned by consecutive complete calls
	errs       []error
	inputs     []*autoscaling.CompleteLifecycleActionInput
	heartbeats chan *autoscaling.RecordLifecycleActionHeartbeatInput
}

func (m *mockAutoScaling) CompleteLifecycleActionWithContext(ctx aws.Context, input *autoscaling.CompleteLifecycleActionInput, opts ...request.Option) (*autoscaling.CompleteLifecycleActionOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, awserr.New(request.CanceledErrorCode, "request context canceled", err)
	}
	m.Lock()
	defer m.Unlock()
	m.inputs = append(m.inputs, input)
	if len(m.errs) != 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	return &autoscaling.CompleteLifecycleActionOutput{}, nil
}

func (m *mockAutoScaling) RecordLifecycleActionHeartbeatWithContext(ctx aws.Context, input *autoscaling.RecordLifecycleActionHeartbeatInput, opts ...request.Option) (*autoscaling.RecordLifecycleActionHeartbeatOutput, error) {
	select {
	case m.heartbeats <- input:
	default:
	}
	return &autoscaling.RecordLifecycleActionHeartbeatOutput{}, nil
}

func (m *mockAutoScaling) completed() []*autoscaling.CompleteLifecycleActionInput {
	m.Lock()
	defer m.Unlock()
	return append([]*autoscaling.CompleteLifecycleActionInput(nil), m.inputs...)
}
