package provider

import "time"

// PollPolicy defines how long a task may stay in polling: an ordered wait
// schedule whose sum is the overall deadline. Early checks are frequent
// because many jobs finish quickly; later checks back off to bound request
// volume for jobs that take minutes.
type PollPolicy struct {
	Schedule []time.Duration
}

// SchedulePolicy builds a policy from an explicit wait sequence.
func SchedulePolicy(waits ...time.Duration) PollPolicy {
	return PollPolicy{Schedule: waits}
}

// FixedPolicy builds a max-attempts-times-delay policy.
func FixedPolicy(attempts int, delay time.Duration) PollPolicy {
	waits := make([]time.Duration, attempts)
	for i := range waits {
		waits[i] = delay
	}
	return PollPolicy{Schedule: waits}
}

// Deadline returns the total wall-clock budget of the schedule.
func (p PollPolicy) Deadline() time.Duration {
	var sum time.Duration
	for _, w := range p.Schedule {
		sum += w
	}
	return sum
}

// DefaultImagePolicy is the observed schedule for image try-on backends,
// capping total wait at about three minutes.
func DefaultImagePolicy() PollPolicy {
	return SchedulePolicy(
		10*time.Second, 5*time.Second, 10*time.Second, 5*time.Second,
		10*time.Second, 20*time.Second, 30*time.Second, 30*time.Second,
		60*time.Second,
	)
}

// DefaultVideoPolicy allows video generation its longer completion times.
func DefaultVideoPolicy() PollPolicy {
	return FixedPolicy(60, 5*time.Second)
}
