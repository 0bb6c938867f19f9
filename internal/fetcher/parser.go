package fetcher

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Patterns are tried in this order; the first one that matches decides the count.
var countPatterns = []struct {
	re          *regexp.Regexp
	abbreviated bool
}{
	{regexp.MustCompile(`(?i)(\d[\d, \t\x{00A0}\x{202F}]*)[\s\x{00A0}\x{202F}]+members`), false},
	{regexp.MustCompile(`(?i)(\d[\d, \t\x{00A0}\x{202F}]*)[\s\x{00A0}\x{202F}]+subscribers`), false},
	{regexp.MustCompile(`(?i)((?:\d+(?:\.\d+)?|\.\d+)[KM])[\s\x{00A0}\x{202F}]+members`), true},
	{regexp.MustCompile(`(?i)((?:\d+(?:\.\d+)?|\.\d+)[KM])[\s\x{00A0}\x{202F}]+subscribers`), true},
}

var leadingIntegerPattern = regexp.MustCompile(`\d[\d,]*`)

// Group separators allowed inside a plain number
var separatorReplacer = strings.NewReplacer(",", "", " ", "", "\t", "", "\u00a0", "", "\u202f", "")

// invisibleSelector lists elements whose text is never rendered.
const invisibleSelector = "script, style, noscript, template"

// CountParser extracts a member count from an HTML page.
type CountParser struct {
	fallbackSelector string
}

// NewCountParser creates a parser that falls back to the text of fallbackSelector
// when no unit pattern matches. An empty selector disables the fallback.
func NewCountParser(fallbackSelector string) *CountParser {
	return &CountParser{fallbackSelector: fallbackSelector}
}

// ParseHTML returns the count found in body and whether one was found.
func (p *CountParser) ParseHTML(body []byte) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, false
	}

	doc.Find(invisibleSelector).Remove()

	if count, ok := ParseText(doc.Text()); ok {
		return count, true
	}

	if p.fallbackSelector == "" {
		return 0, false
	}
	region := doc.Find(p.fallbackSelector).First()
	if region.Length() == 0 {
		return 0, false
	}
	return ParseLeadingInteger(region.Text())
}

// ParseText applies the unit patterns to visible page text.
func ParseText(text string) (int, bool) {
	for _, pattern := range countPatterns {
		match := pattern.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if pattern.abbreviated {
			return parseAbbreviated(match[1])
		}
		return parsePlain(match[1])
	}
	return 0, false
}

// ParseLeadingInteger returns the first comma-grouped integer in text.
func ParseLeadingInteger(text string) (int, bool) {
	match := leadingIntegerPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	return parsePlain(match)
}

func parsePlain(raw string) (int, bool) {
	n, err := strconv.Atoi(separatorReplacer.Replace(strings.TrimSpace(raw)))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseAbbreviated converts "1.2K" or "1.5m" and truncates toward zero.
func parseAbbreviated(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	var multiplier float64
	switch raw[len(raw)-1] {
	case 'K', 'k':
		multiplier = 1_000
	case 'M', 'm':
		multiplier = 1_000_000
	default:
		return 0, false
	}

	mantissa, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
	if err != nil {
		return 0, false
	}
	value := math.Trunc(mantissa * multiplier)
	if value < 0 || value >= math.MaxInt64 {
		return 0, false
	}
	return int(value), true
}
