package pipeline

import (
	"errors"

	"github.com/piyushxpc7/LedgerlyAI/internal/db"
	"github.com/piyushxpc7/LedgerlyAI/internal/llm"
)

// Disposition tells the scheduler what to do with a finished attempt.
type Disposition int

const (
	// DispositionCompleted: the pipeline ran to the end.
	DispositionCompleted Disposition = iota
	// DispositionRetryable: the attempt failed in a way another attempt
	// might survive (transient provider or store trouble).
	DispositionRetryable
	// DispositionFatal: retrying cannot help (missing records, exhausted
	// credits, bad credentials).
	DispositionFatal
)

func (d Disposition) String() string {
	switch d {
	case DispositionCompleted:
		return "completed"
	case DispositionRetryable:
		return "retryable"
	case DispositionFatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is the explicit result of one pipeline attempt. Attempts never
// signal retry by panicking or by error type sniffing at the call site;
// the disposition is decided where the failure context is known.
type Outcome struct {
	Disposition Disposition
	Err         error
}

// Completed returns a successful outcome.
func Completed() Outcome {
	return Outcome{Disposition: DispositionCompleted}
}

// Failed classifies an attempt error into a retryable or fatal outcome.
func Failed(err error) Outcome {
	if errors.Is(err, llm.ErrFatalAPI) || errors.Is(err, db.ErrNotFound) {
		return Outcome{Disposition: DispositionFatal, Err: err}
	}
	return Outcome{Disposition: DispositionRetryable, Err: err}
}

// Fatal returns a non-retryable failure outcome.
func Fatal(err error) Outcome {
	return Outcome{Disposition: DispositionFatal, Err: err}
}

// Succeeded reports whether the attempt completed.
func (o Outcome) Succeeded() bool {
	return o.Disposition == DispositionCompleted
}

// Retryable reports whether another attempt may be worthwhile.
func (o Outcome) Retryable() bool {
	return o.Disposition == DispositionRetryable
}
