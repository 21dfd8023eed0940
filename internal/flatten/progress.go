package flatten

// Progress reports how many files of a scan have been rendered.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Percent returns the completed share in the range [0, 100]. An empty scan is complete.
func (progress Progress) Percent() float64 {
	if progress.Total <= 0 {
		return 100
	}
	return float64(progress.Processed) / float64(progress.Total) * 100
}

// Done reports whether every file has been rendered.
func (progress Progress) Done() bool {
	return progress.Processed >= progress.Total
}

// ProgressReporter receives best-effort progress notifications. Implementations must not block
// indefinitely.
type ProgressReporter interface {
	Notify(progress Progress)
}

// ReporterFunc adapts a function to ProgressReporter.
type ReporterFunc func(progress Progress)

// Notify calls the underlying function.
func (reporterFunc ReporterFunc) Notify(progress Progress) {
	reporterFunc(progress)
}

func notify(reporter ProgressReporter, progress Progress) {
	if reporter == nil {
		return
	}
	reporter.Notify(progress)
}
