package sync

import "fmt"

// Report is the outcome of one sync operation. Operations are
// independent and idempotent; the report tells an operator what a run
// actually changed.
type Report struct {
	Created int64
	Updated int64
	Removed int64
	Failed  int64
	Skipped int64
}

// Merge folds another report into this one.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Created += other.Created
	r.Updated += other.Updated
	r.Removed += other.Removed
	r.Failed += other.Failed
	r.Skipped += other.Skipped
}

func (r *Report) String() string {
	return fmt.Sprintf("created=%d updated=%d removed=%d failed=%d skipped=%d",
		r.Created, r.Updated, r.Removed, r.Failed, r.Skipped)
}
