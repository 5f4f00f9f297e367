// Package extract pulls structured JSON out of model output. Models asked
// for a JSON object sometimes wrap it in prose or a Markdown fence, so the
// parser degrades gracefully: direct parse, then fenced block, then the
// outermost brace span.
package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ParseError reports text that could not be interpreted as a JSON object.
// The raw output is retained for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return "extract: no JSON object found in model output"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Object extracts a JSON object from model output text.
func Object(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)

	if obj, err := decodeObject(trimmed); err == nil {
		return obj, nil
	}

	if m := fencedJSON.FindStringSubmatch(trimmed); m != nil {
		if obj, err := decodeObject(m[1]); err == nil {
			return obj, nil
		}
	}

	if span := braceSpan(trimmed); span != "" {
		obj, err := decodeObject(span)
		if err == nil {
			return obj, nil
		}
		return nil, &ParseError{Raw: text, Err: err}
	}

	return nil, &ParseError{Raw: text}
}

func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// braceSpan returns the text between the first "{" and the last "}", the
// widest candidate object when the reply embeds JSON in prose.
func braceSpan(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
