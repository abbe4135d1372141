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
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/gravitational/trace"
)

// AWS error codes not exported by the SDK
const (
	errCodeThrottling            = "Throttling"
	errCodeThrottlingException   = "ThrottlingException"
	errCodeRequestLimitExceeded  = "RequestLimitExceeded"
	errCodeVolumeInUse           = "VolumeInUse"
	errCodeIncorrectState        = "IncorrectState"
	errCodeZoneMismatch          = "InvalidVolume.ZoneMismatch"
	errCodeVolumeNotFound        = "InvalidVolume.NotFound"
	errCodeInstanceNotFound      = "InvalidInstanceID.NotFound"
	errCodeUnauthorizedOperation = "UnauthorizedOperation"
	errCodeAccessDenied          = "AccessDenied"
	errCodeAccessDeniedException = "AccessDeniedException"
)

// ConvertError converts errors specific to AWS to trace-compatible error:
//
//   * waiters running out of attempts and throttling become LimitExceeded
//   * an unreachable remote command agent or endpoint becomes ConnectionProblem
//   * conflicting volume attachment state becomes CompareFailed
//   * missing volumes and instances become NotFound
func ConvertError(err error) error {
	if err == nil {
		return nil
	}
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return err
	}
	switch awsErr.Code() {
	case request.WaiterResourceNotReadyErrorCode:
		return trace.LimitExceeded("%v", awsErr.Error())
	case errCodeThrottling, errCodeThrottlingException, errCodeRequestLimitExceeded:
		return trace.LimitExceeded("%v", awsErr.Error())
	case ssm.ErrCodeInvalidInstanceId, ssm.ErrCodeUnsupportedPlatformType:
		return trace.ConnectionProblem(err, "%v", awsErr.Error())
	case request.ErrCodeRequestError, request.ErrCodeResponseTimeout:
		return trace.ConnectionProblem(err, "%v", awsErr.Error())
	case errCodeVolumeInUse, errCodeIncorrectState, errCodeZoneMismatch:
		return trace.CompareFailed("%v", awsErr.Error())
	case errCodeVolumeNotFound, errCodeInstanceNotFound:
		return trace.NotFound("%v", awsErr.Error())
	case errCodeUnauthorizedOperation, errCodeAccessDenied, errCodeAccessDeniedException:
		return trace.AccessDenied("%v", awsErr.Error())
	case request.CanceledErrorCode:
		return trace.ConnectionProblem(err, "%v", awsErr.Error())
	default:
		return trace.BadParameter("%v", awsErr.Error())
	}
}

// IsThrottled returns true if err is an AWS throttling error
func IsThrottled(err error) bool {
	awsErr, ok := trace.Unwrap(err).(awserr.Error)
	if !ok {
		return false
	}
	switch awsErr.Code() {
	case errCodeThrottling, errCodeThrottlingException, errCodeRequestLimitExceeded:
		return true
	}
	return false
}
