package outship

// UnitResult is the outcome of one unit of work in a batch: one source order
// group, one shipment, one serial record.
type UnitResult struct {
	Unit   string `json:"unit" dynamodbav:"unit"`
	Saved  bool   `json:"saved" dynamodbav:"saved"`
	Reason string `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	Err    error  `json:"-" dynamodbav:"-"`
}

func Succeeded(unit string, saved bool) UnitResult {
	return UnitResult{Unit: unit, Saved: saved}
}

func Failed(unit string, err error) UnitResult {
	return UnitResult{Unit: unit, Reason: err.Error(), Err: err}
}

func (r UnitResult) Failed() bool {
	return r.Err != nil || r.Reason != ""
}

// Summary aggregates unit results for the operator who triggered a batch.
type Summary struct {
	Evaluated int          `json:"evaluated" dynamodbav:"evaluated"`
	Saved     int          `json:"saved" dynamodbav:"saved"`
	Deleted   int          `json:"deleted" dynamodbav:"deleted"`
	Errors    int          `json:"errors" dynamodbav:"errors"`
	Failures  []UnitResult `json:"failures,omitempty" dynamodbav:"failures,omitempty"`
}

// Add records a unit that was evaluated.
func (s *Summary) Add(r UnitResult) {
	s.Evaluated++
	if r.Saved {
		s.Saved++
	}
	if r.Failed() {
		s.Errors++
		s.Failures = append(s.Failures, r)
	}
}

// Fail records an error that is not tied to an evaluated unit, such as a
// failed lookup.
func (s *Summary) Fail(unit string, err error) {
	s.Errors++
	s.Failures = append(s.Failures, Failed(unit, err))
}

func (s *Summary) Merge(o *Summary) {
	if o == nil {
		return
	}
	s.Evaluated += o.Evaluated
	s.Saved += o.Saved
	s.Deleted += o.Deleted
	s.Errors += o.Errors
	s.Failures = append(s.Failures, o.Failures...)
}
