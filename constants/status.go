package constants

// JobStatus is the canonical status for rows in import_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending    JobStatus = "pending"    // waiting to be claimed
	JobStatusProcessing JobStatus = "processing" // claimed by a worker
	JobStatusDone       JobStatus = "done"       // terminal success
	JobStatusFailed     JobStatus = "failed"     // terminal failure, see error column
)

// AllJobStatuses lists every status in lifecycle order.
var AllJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusDone,
	JobStatusFailed,
}

// IsTerminal reports whether no further transition is expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}
