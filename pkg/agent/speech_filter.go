package agent

import (
	"regexp"
	"strings"
)

// SpeechFilter screens generated dialogue before it reaches other agents
// or players. Lines matching a blocked pattern are replaced wholesale;
// masked patterns are redacted in place.
type SpeechFilter struct {
	blocked     []*regexp.Regexp
	masked      []*regexp.Regexp
	replacement string
}

// SpeechFilterOption configures a SpeechFilter.
type SpeechFilterOption func(*SpeechFilter)

// WithBlockedPatterns rejects any line matching one of the patterns.
func WithBlockedPatterns(patterns ...string) SpeechFilterOption {
	return func(f *SpeechFilter) {
		for _, p := range patterns {
			f.blocked = append(f.blocked, regexp.MustCompile(p))
		}
	}
}

// WithMaskedPatterns redacts matches instead of dropping the line.
func WithMaskedPatterns(patterns ...string) SpeechFilterOption {
	return func(f *SpeechFilter) {
		for _, p := range patterns {
			f.masked = append(f.masked, regexp.MustCompile(p))
		}
	}
}

// WithReplacementLine sets what a blocked line is replaced with.
func WithReplacementLine(line string) SpeechFilterOption {
	return func(f *SpeechFilter) { f.replacement = line }
}

// Generated dialogue occasionally leaks assistant phrasing or markup that
// breaks character; these are scrubbed by default.
var defaultMaskedPatterns = []string{
	`(?i)as an ai( language)? model[^.!?]*[.!?]?`,
	`(?i)i('m| am) (an ai|a language model)[^.!?]*[.!?]?`,
	"```[^`]*```",
	`<[^>]+>`,
}

// NewSpeechFilter builds a filter with the default out-of-character scrub.
func NewSpeechFilter(opts ...SpeechFilterOption) *SpeechFilter {
	f := &SpeechFilter{replacement: "..."}
	for _, p := range defaultMaskedPatterns {
		f.masked = append(f.masked, regexp.MustCompile(p))
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter returns the line safe for delivery and whether it was altered.
func (f *SpeechFilter) Filter(line string) (string, bool) {
	for _, re := range f.blocked {
		if re.MatchString(line) {
			return f.replacement, true
		}
	}
	altered := false
	for _, re := range f.masked {
		if re.MatchString(line) {
			line = re.ReplaceAllString(line, "")
			altered = true
		}
	}
	if altered {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			line = f.replacement
		}
	}
	return line, altered
}
