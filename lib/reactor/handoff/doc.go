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

/*
Package handoff implements the persistent volume handoff reactor.

The game server fleet runs in an auto scaling group of at most one instance.
The game data lives on a single EBS volume tagged Persistent=true and
AutoAttach=true that outlives the instances. Whenever the group launches
a replacement instance, a launch lifecycle hook pauses it and notifies the
reactor through SNS. The reactor then moves the volume to the new instance:

                                 +----------------------+
          Launching:Wait         |                      |
    ASG ----------------> SNS -->|   Handoff reactor    |
     ^                           |                      |
     |                           +----+-----------+-----+
     |  CONTINUE / ABANDON            |           |
     +--------------------------------+           | describe, detach (forced),
                                                  | wait, attach, wait
                                                  v
                                           +-------------+
                                           |  EC2 / EBS  |
                                           +-------------+

* test notifications are acknowledged without touching any resources
* if no tagged volume exists the lifecycle action is abandoned
* if the volume is attached elsewhere it is detached in forced mode,
  since the old instance is terminating and can not cooperate
* the volume is attached as a fixed device once the instance is running
* every wait is bounded by a poll interval and a maximum number of polls
* any failure abandons the lifecycle action and is returned to the runtime

Concurrent invocations are not serialized: EC2 refuses to attach a volume
to two instances at once, so the losing invocation fails to attach and
abandons its instance.
*/
package handoff
