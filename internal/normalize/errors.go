package normalize

import "fmt"

// SchemaError means a required column for the family was missing from the
// CSV header. The job aborts before any write.
type SchemaError struct {
	TransformerTag string
	Column         string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: transformer %q is missing required column %q", e.TransformerTag, e.Column)
}

// ParseWarning is a per-row, non-fatal condition (unparseable timestamp).
// Callers accumulate these rather than aborting the job.
type ParseWarning struct {
	Row    int
	Reason string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("row %d: %s", w.Row, w.Reason)
}
