package fetch

// Status is the result of processing one date.
type Status string

const (
	// StatusCreated means the image was downloaded in this run.
	StatusCreated Status = "created"
	// StatusRefreshed means only metadata was rewritten.
	StatusRefreshed Status = "refreshed"
	// StatusSkipped means the entry was already present.
	StatusSkipped Status = "skipped"
	// StatusFailed means processing the date was aborted.
	StatusFailed Status = "failed"
)

// Outcome records what happened to one date.
type Outcome struct {
	Date   string
	Status Status
	Err    error
}

// Report summarises one fetch run.
type Report struct {
	Source   string
	Target   string
	Outcomes []Outcome
}

func (r *Report) add(date string, status Status, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Date: date, Status: status, Err: err})
}

// Count returns the number of outcomes with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Created returns the number of newly downloaded entries.
func (r *Report) Created() int { return r.Count(StatusCreated) }

// Failed returns the number of dates that could not be processed.
func (r *Report) Failed() int { return r.Count(StatusFailed) }

// CreatedDates lists the dates whose image was downloaded in this run.
func (r *Report) CreatedDates() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Status == StatusCreated {
			out = append(out, o.Date)
		}
	}
	return out
}
