package model

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ErrorKind tags a failed outcome with its cause class.
type ErrorKind string

const (
	// ErrConfiguration: a required external tool path is unset or missing.
	// No subprocess was launched.
	ErrConfiguration ErrorKind = "configuration"
	// ErrInvocation: the external process ran but exited non-zero or
	// produced no usable output.
	ErrInvocation ErrorKind = "invocation"
	// ErrIO: an output or intermediate path could not be created.
	ErrIO ErrorKind = "io"
)

// OperationOutcome records how one operation of one item went. Immutable once
// produced.
type OperationOutcome struct {
	Operation   Operation `json:"operation"`
	Status      string    `json:"status"`
	ErrorKind   ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	OutputPath  string    `json:"output_path,omitempty"`
	// Note carries non-error detail, e.g. whether a normals pass actually
	// changed anything.
	Note string `json:"note,omitempty"`
}

func SuccessOutcome(op Operation, outputPath string) OperationOutcome {
	return OperationOutcome{Operation: op, Status: StatusSuccess, OutputPath: outputPath}
}

func FailedOutcome(op Operation, kind ErrorKind, detail string) OperationOutcome {
	return OperationOutcome{Operation: op, Status: StatusFailed, ErrorKind: kind, ErrorDetail: detail}
}

// ItemResult is the per-input record. Outcomes appear in canonical execution
// order restricted to the selected subset.
type ItemResult struct {
	InputPath string             `json:"input_path"`
	Outcomes  []OperationOutcome `json:"outcomes"`
}

// Succeeded reports whether every selected operation succeeded.
func (r ItemResult) Succeeded() bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// FailedCount returns how many of the item's operations failed.
func (r ItemResult) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			n++
		}
	}
	return n
}

// BatchReport aggregates ItemResults as a batch runs. Append-only; totals are
// recomputed by Finalize.
type BatchReport struct {
	Items          []ItemResult `json:"items"`
	TotalSucceeded int          `json:"total_succeeded"`
	TotalFailed    int          `json:"total_failed"`
}

// Append records a completed item.
func (b *BatchReport) Append(item ItemResult) {
	b.Items = append(b.Items, item)
}

// Finalize recomputes the success/failure totals. An item counts as succeeded
// only when every selected operation's outcome is Success.
func (b *BatchReport) Finalize() {
	succeeded := 0
	failed := 0
	for _, item := range b.Items {
		if item.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	b.TotalSucceeded = succeeded
	b.TotalFailed = failed
}
