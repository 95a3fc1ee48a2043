// Package result is the uniform outcome returned by store operations. Stores report
// failures through a Result instead of returning an error, callers check Success.
package result

type Result struct {
	Success bool
	// Cached is set when the operation was satisfied without a network call.
	Cached bool
	Err    error
}

func OK() Result {
	return Result{Success: true}
}

func Cached() Result {
	return Result{Success: true, Cached: true}
}

func Fail(err error) Result {
	return Result{Err: err}
}

// Error returns the failure message, or "" for a successful result.
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
