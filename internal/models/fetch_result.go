package models

import "sort"

// FailureReason classifies why a fetch produced no count.
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonTimeout     FailureReason = "timeout"
	ReasonHTTPError   FailureReason = "http-error"
	ReasonParseMiss   FailureReason = "parse-miss"
	ReasonTransport   FailureReason = "transport"
	ReasonUnavailable FailureReason = "unavailable"
)

// FetchResult is either a count (Reason empty) or a typed failure. Failures are never persisted.
type FetchResult struct {
	Target Target
	Count  int
	Reason FailureReason
	Err    error
}

// OK reports whether the fetch produced a count.
func (r FetchResult) OK() bool {
	return r.Reason == ReasonNone
}

// NewSuccessResult creates a successful fetch result.
func NewSuccessResult(target Target, count int) FetchResult {
	return FetchResult{Target: target, Count: count}
}

// NewFailureResult creates a failed fetch result.
func NewFailureResult(target Target, reason FailureReason, err error) FetchResult {
	return FetchResult{Target: target, Reason: reason, Err: err}
}

// FetchResults holds one result per attempted target, in input order.
type FetchResults []FetchResult

// ByTarget maps every attempted target name to its result.
func (rs FetchResults) ByTarget() map[string]FetchResult {
	out := make(map[string]FetchResult, len(rs))
	for _, r := range rs {
		out[r.Target.Name] = r
	}
	return out
}

// Successful returns the counts of targets that succeeded.
func (rs FetchResults) Successful() map[string]int {
	out := make(map[string]int)
	for _, r := range rs {
		if r.OK() {
			out[r.Target.Name] = r.Count
		}
	}
	return out
}

// Failed returns the sorted names of targets that failed.
func (rs FetchResults) Failed() []string {
	var out []string
	for _, r := range rs {
		if !r.OK() {
			out = append(out, r.Target.Name)
		}
	}
	sort.Strings(out)
	return out
}
