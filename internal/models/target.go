package models

import (
	"net/url"
	"strings"
)

// MaxTargetNameLength bounds the stored target name.
const MaxTargetNameLength = 50

// TargetKind selects the fetch strategy for a target.
type TargetKind string

const (
	// KindPageScrape fetches a public HTML page and parses the count from its text.
	KindPageScrape TargetKind = "page-scrape"
	// KindStructuredAPI reads the count from a JSON invite endpoint.
	KindStructuredAPI TargetKind = "structured-api"
)

// IsValid reports whether k is a known kind.
func (k TargetKind) IsValid() bool {
	return k == KindPageScrape || k == KindStructuredAPI
}

// Target is one tracked community channel. Name is its identity everywhere.
type Target struct {
	Name string     `json:"name" yaml:"name" validate:"required,max=50"`
	URL  string     `json:"url" yaml:"url" validate:"required,url"`
	Kind TargetKind `json:"kind" yaml:"kind" validate:"required,targetkind"`
}

// InviteCode returns the last non-empty path segment of the target URL.
func (t Target) InviteCode() string {
	u, err := url.Parse(t.URL)
	path := t.URL
	if err == nil {
		path = u.Path
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return segments[len(segments)-1]
}

// Region is a named, ordered group of target names used only for aggregation.
type Region struct {
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Targets []string `json:"targets" yaml:"targets" validate:"required,min=1,dive,required"`
}

// TargetNames returns the names of targets in order.
func TargetNames(targets []Target) []string {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	return names
}
