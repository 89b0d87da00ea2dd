package domain

import "time"

// JobQueue names one of the named work queues the job runner routes
// tasks to.
type JobQueue string

const (
	QueueRuleEngine   JobQueue = "rule_engine"
	QueueAnalytics    JobQueue = "analytics"
	QueueReporting    JobQueue = "reporting"
	QueueNotifications JobQueue = "notifications"
)

// JobStatus transitions monotonically: pending -> running ->
// {complete, failed}. Only analytics and reporting jobs are tracked
// through a Job record; the rule-evaluation fast path does not use one.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// Job is the relational record backing the job record mentioned in
// §3 and §6: status, error, and timing visible to the external HTTP
// facade for analytics/report jobs.
type Job struct {
	ID           int64
	TenantID     int64
	Kind         string
	Queue        JobQueue
	Status       JobStatus
	ErrorMessage *string
	ResultURL    *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// MarkRunning transitions pending -> running.
func (j *Job) MarkRunning(at time.Time) {
	j.Status = JobStatusRunning
	j.StartedAt = &at
}

// MarkComplete transitions running -> complete and records the
// object-storage URL of the job's output, if any.
func (j *Job) MarkComplete(at time.Time, resultURL *string) {
	j.Status = JobStatusComplete
	j.CompletedAt = &at
	j.ResultURL = resultURL
}

// MarkFailed transitions running -> failed with an error message; no
// retry is implied by this transition, it is terminal.
func (j *Job) MarkFailed(at time.Time, errMsg string) {
	j.Status = JobStatusFailed
	j.CompletedAt = &at
	j.ErrorMessage = &errMsg
}
