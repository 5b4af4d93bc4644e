package domain

// Progress reports a stage of a long-running operation, such as local
// model initialization or batch embedding. Total may be zero when the
// stage has no meaningful bound.
type Progress struct {
	Stage   string
	Current int
	Total   int
}

// ProgressFunc receives progress events. Implementations must be fast
// and must not block; a nil ProgressFunc disables reporting.
type ProgressFunc func(Progress)
