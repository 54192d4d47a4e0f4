// Package tagparse extracts delimited blocks from model responses.
//
// The grammar is:
//
//	response := text* "<" TAG ">" body "</" TAG ">" text*
//
// Only the first well-formed block for a tag is used. Bodies may be plain
// text or JSON; JSON bodies may additionally be wrapped in a Markdown code
// fence, which is removed before decoding.
package tagparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tags used by the documentation pipeline.
const (
	TagGroupedComponents = "GROUPED_COMPONENTS"
	TagOverview          = "OVERVIEW"
	TagDocumentation     = "DOCUMENTATION"
	TagSubModules        = "SUB_MODULES"
	TagReadComponents    = "READ_COMPONENTS"
	TagGlossaryEntries   = "GLOSSARY_ENTRIES"
)

// Failure modes of Extract.
var (
	// ErrTagMissing means the opening tag does not occur in the text.
	ErrTagMissing = errors.New("tag missing")
	// ErrTagUnclosed means the opening tag occurs without a matching close tag.
	ErrTagUnclosed = errors.New("tag not closed")
	// ErrEmptyBody means the block exists but holds only whitespace.
	ErrEmptyBody = errors.New("tag body is empty")
)

// TagError reports which tag failed and how. It unwraps to one of the
// failure sentinels, or to the JSON decoding error for ExtractJSON.
type TagError struct {
	Tag string
	Err error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("<%s>: %v", e.Tag, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

// Open returns the opening form of tag.
func Open(tag string) string { return "<" + tag + ">" }

// Close returns the closing form of tag.
func Close(tag string) string { return "</" + tag + ">" }

// Wrap encloses body in tag.
func Wrap(tag, body string) string {
	return Open(tag) + "\n" + body + "\n" + Close(tag)
}

// Extract returns the trimmed body of the first <tag>...</tag> block in text.
func Extract(text, tag string) (string, error) {
	open, closeTag := Open(tag), Close(tag)

	start := strings.Index(text, open)
	if start < 0 {
		return "", &TagError{Tag: tag, Err: ErrTagMissing}
	}
	rest := text[start+len(open):]

	end := strings.Index(rest, closeTag)
	if end < 0 {
		return "", &TagError{Tag: tag, Err: ErrTagUnclosed}
	}

	body := strings.TrimSpace(rest[:end])
	if body == "" {
		return "", &TagError{Tag: tag, Err: ErrEmptyBody}
	}
	return body, nil
}

// ExtractOr returns the tagged body, or the whole trimmed text when the tag
// is absent or unclosed. The boolean reports whether the tag was found, so
// callers can log the fallback. An empty result is returned as ErrEmptyBody.
func ExtractOr(text, tag string) (string, bool, error) {
	body, err := Extract(text, tag)
	if err == nil {
		return body, true, nil
	}
	if errors.Is(err, ErrEmptyBody) {
		return "", true, err
	}

	raw := strings.TrimSpace(text)
	if raw == "" {
		return "", false, &TagError{Tag: tag, Err: ErrEmptyBody}
	}
	return raw, false, nil
}

// ExtractJSON decodes the first <tag> block of text into v.
func ExtractJSON(text, tag string, v any) error {
	body, err := Extract(text, tag)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFence(body)), v); err != nil {
		return &TagError{Tag: tag, Err: err}
	}
	return nil
}

// Has reports whether text contains a complete <tag> block.
func Has(text, tag string) bool {
	_, err := Extract(text, tag)
	return err == nil || errors.Is(err, ErrEmptyBody)
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(body string) string {
	if !strings.HasPrefix(body, "```") {
		return body
	}
	nl := strings.Index(body, "\n")
	if nl < 0 {
		return body
	}
	inner := body[nl+1:]
	inner = strings.TrimSpace(inner)
	inner = strings.TrimSuffix(inner, "```")
	return strings.TrimSpace(inner)
}
