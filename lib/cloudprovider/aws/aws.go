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

package aws

import (
	"sort"

	"github.com/gravitational/fleetkeeper/lib/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/gravitational/trace"
)

// NewSession returns a new AWS session for the specified region.
// An empty region defers to the shared configuration and environment
func NewSession(region string) (*session.Session, error) {
	config := aws.NewConfig().WithCredentialsChainVerboseErrors(true)
	if region != "" {
		config = config.WithRegion(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *config,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return sess, nil
}

// WaiterOptions converts the retry policy into SDK waiter options:
// a constant delay between polls and a fixed number of polls
func WaiterOptions(policy utils.RetryPolicy) []request.WaiterOption {
	return []request.WaiterOption{
		request.WithWaiterDelay(request.ConstantWaiterDelay(policy.Interval)),
		request.WithWaiterMaxAttempts(policy.MaxAttempts),
	}
}

// InstanceZone returns the availability zone of the instance
func InstanceZone(instance ec2.Instance) string {
	if instance.Placement != nil {
		return aws.StringValue(instance.Placement.AvailabilityZone)
	}
	return ""
}

// TagFilters returns describe filters matching resources with all
// of the specified tags, ordered by tag key
func TagFilters(tags map[string]string) []*ec2.Filter {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	filters := make([]*ec2.Filter, 0, len(keys))
	for _, key := range keys {
		filters = append(filters, &ec2.Filter{
			Name:   aws.String("tag:" + key),
			Values: aws.StringSlice([]string{tags[key]}),
		})
	}
	return filters
}

// AttachedInstances returns the IDs of the instances holding the volume:
// every attachment that is neither detaching nor detached
func AttachedInstances(volume ec2.Volume) (instanceIDs []string) {
	for _, attachment := range volume.Attachments {
		switch aws.StringValue(attachment.State) {
		case ec2.VolumeAttachmentStateDetaching, ec2.VolumeAttachmentStateDetached:
			continue
		}
		instanceIDs = append(instanceIDs, aws.StringValue(attachment.InstanceId))
	}
	return instanceIDs
}

// VolumeIDs returns the IDs of the specified volumes
func VolumeIDs(volumes []*ec2.Volume) []string {
	ids := make([]string, 0, len(volumes))
	for _, volume := range volumes {
		ids = append(ids, aws.StringValue(volume.VolumeId))
	}
	return ids
}
