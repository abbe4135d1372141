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
	"strings"

	cloud "github.com/gravitational/fleetkeeper/lib/cloudprovider/aws"
	"github.com/gravitational/fleetkeeper/lib/events"
	"github.com/gravitational/fleetkeeper/lib/log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/gravitational/trace"
)

// findVolume returns the persistent volume or nil if there is none
func (r *Reactor) findVolume(ctx context.Context, logger log.Logger) (*ec2.Volume, error) {
	resp, err := r.Cloud.DescribeVolumesWithContext(ctx, &ec2.DescribeVolumesInput{
		Filters: cloud.TagFilters(r.VolumeTags),
	})
	if err != nil {
		return nil, trace.Wrap(cloud.ConvertError(err), "failed to look up volume with tags %v", r.VolumeTags)
	}
	if len(resp.Volumes) == 0 {
		return nil, nil
	}
	if len(resp.Volumes) > 1 {
		logger.Warnf("Found %v volumes with tags %v: %v, using the first one.",
			len(resp.Volumes), r.VolumeTags, cloud.VolumeIDs(resp.Volumes))
	}
	return resp.Volumes[0], nil
}

// moveVolume attaches the volume to the instance from the notice,
// detaching it from its current holder first
func (r *Reactor) moveVolume(ctx context.Context, notice events.LifecycleNotice, volume ec2.Volume, logger log.Logger) error {
	volumeID := aws.StringValue(volume.VolumeId)
	state := aws.StringValue(volume.State)
	logger.Infof("Found volume %v in state %v.", volumeID, state)

	holders := cloud.AttachedInstances(volume)
	for _, holder := range holders {
		if holder == notice.InstanceID {
			logger.Info("Volume is already attached to the instance.")
			return trace.Wrap(r.waitVolumeInUse(ctx, volumeID))
		}
	}
	if state == ec2.VolumeStateInUse && len(holders) != 0 {
		logger.Infof("Detaching volume from old instance %v.", strings.Join(holders, ","))
		if err := r.detachVolume(ctx, volumeID); err != nil {
			return trace.Wrap(err)
		}
	}
	if state != ec2.VolumeStateAvailable {
		logger.Info("Waiting for volume to become available.")
		if err := r.waitVolumeAvailable(ctx, volumeID); err != nil {
			return trace.Wrap(err)
		}
	}

	logger.Info("Waiting for instance to be running.")
	instance, err := r.waitInstanceRunning(ctx, notice.InstanceID)
	if err != nil {
		return trace.Wrap(err)
	}
	volumeZone := aws.StringValue(volume.AvailabilityZone)
	instanceZone := cloud.InstanceZone(*instance)
	if volumeZone != "" && instanceZone != "" && volumeZone != instanceZone {
		return trace.CompareFailed("volume %v is in %v while instance %v is in %v",
			volumeID, volumeZone, notice.InstanceID, instanceZone)
	}

	logger.Infof("Attaching volume %v to instance %v as %v.", volumeID, notice.InstanceID, r.Device)
	if err := r.attachVolume(ctx, volumeID, notice.InstanceID); err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(r.waitVolumeInUse(ctx, volumeID))
}

// detachVolume detaches the volume in forced mode: the instance it is
// attached to is terminating and will not unmount it
func (r *Reactor) detachVolume(ctx context.Context, volumeID string) error {
	_, err := r.Cloud.DetachVolumeWithContext(ctx, &ec2.DetachVolumeInput{
		VolumeId: aws.String(volumeID),
		Force:    aws.Bool(true),
	})
	if err != nil {
		return trace.Wrap(cloud.ConvertError(err), "failed to detach volume %v", volumeID)
	}
	return nil
}

func (r *Reactor) attachVolume(ctx context.Context, volumeID, instanceID string) error {
	_, err := r.Cloud.AttachVolumeWithContext(ctx, &ec2.AttachVolumeInput{
		VolumeId:   aws.String(volumeID),
		InstanceId: aws.String(instanceID),
		Device:     aws.String(r.Device),
	})
	if err != nil {
		return trace.Wrap(cloud.ConvertError(err), "failed to attach volume %v to %v", volumeID, instanceID)
	}
	return nil
}

func (r *Reactor) waitVolumeAvailable(ctx context.Context, volumeID string) error {
	err := r.Cloud.WaitUntilVolumeAvailableWithContext(ctx, &ec2.DescribeVolumesInput{
		VolumeIds: aws.StringSlice([]string{volumeID}),
	}, cloud.WaiterOptions(r.Poll)...)
	if err != nil {
		return trace.Wrap(cloud.ConvertError(err), "volume %v did not become available", volumeID)
	}
	return nil
}

func (r *Reactor) waitVolumeInUse(ctx context.Context, volumeID string) error {
	err := r.Cloud.WaitUntilVolumeInUseWithContext(ctx, &ec2.DescribeVolumesInput{
		VolumeIds: aws.StringSlice([]string{volumeID}),
	}, cloud.WaiterOptions(r.Poll)...)
	if err != nil {
		return trace.Wrap(cloud.ConvertError(err), "volume %v did not become in-use", volumeID)
	}
	return nil
}

// waitInstanceRunning blocks until the instance is running and returns it
func (r *Reactor) waitInstanceRunning(ctx context.Context, instanceID string) (*ec2.Instance, error) {
	err := r.Cloud.WaitUntilInstanceRunningWithContext(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: aws.StringSlice([]string{instanceID}),
	}, cloud.WaiterOptions(r.Poll)...)
	if err != nil {
		return nil, trace.Wrap(cloud.ConvertError(err), "instance %v did not reach running state", instanceID)
	}
	return r.describeInstance(ctx, instanceID)
}

// describeInstance returns information about instance with the specified ID.
func (r *Reactor) describeInstance(ctx context.Context, instanceID string) (*ec2.Instance, error) {
	resp, err := r.Cloud.DescribeInstancesWithContext(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: aws.StringSlice([]string{instanceID}),
	})
	if err != nil {
		return nil, trace.Wrap(cloud.ConvertError(err))
	}
	if len(resp.Reservations) == 0 || len(resp.Reservations[0].Instances) == 0 {
		return nil, trace.NotFound("instance %v not found", instanceID)
	}
	if len(resp.Reservations) != 1 || len(resp.Reservations[0].Instances) != 1 {
		return nil, trace.BadParameter("expected 1 instance with ID %v, got: %s", instanceID, resp)
	}
	return resp.Reservations[0].Instances[0], nil
}
