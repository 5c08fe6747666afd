package wiki

import (
	"fmt"
	"strconv"
	"strings"
)

// NoFilesFoundError is returned by the fetch stage when the crawl matched
// nothing.
type NoFilesFoundError struct {
	Dir string
}

func (e *NoFilesFoundError) Error() string {
	return fmt.Sprintf("no files found in %s (check include/exclude patterns)", e.Dir)
}

// ResponseFormatError reports an LLM response that carries no usable YAML
// block, or one that does not have the expected shape. Stage names the
// stage that rejected it.
type ResponseFormatError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed LLM response: %s: %v", e.Reason, e.Err)
	}
	return "malformed LLM response: " + e.Reason
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

// InvalidAbstractionError reports an abstraction entry with missing or
// mistyped fields.
type InvalidAbstractionError struct {
	Position int
	Reason   string
}

func (e *InvalidAbstractionError) Error() string {
	return fmt.Sprintf("abstraction #%d is invalid: %s", e.Position, e.Reason)
}

// IndexOutOfRangeError reports an LLM-supplied index outside [0, Limit).
type IndexOutOfRangeError struct {
	Kind  string // "file", "abstraction"
	Owner string
	Index int
	Limit int
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s index %d out of range [0, %d) in %s", e.Kind, e.Index, e.Limit, e.Owner)
	}
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Limit)
}

// AllAbstractionsInvalidError is returned when no abstraction survived
// validation.
type AllAbstractionsInvalidError struct {
	Skipped int
}

func (e *AllAbstractionsInvalidError) Error() string {
	return fmt.Sprintf("no valid abstractions in LLM response (%d entries skipped)", e.Skipped)
}

// MalformedRelationshipsError reports a relationships document with missing
// keys or wrong value types.
type MalformedRelationshipsError struct {
	Reason string
}

func (e *MalformedRelationshipsError) Error() string {
	return "malformed relationships: " + e.Reason
}

// UncoveredAbstractionError lists abstractions that take part in no
// relationship.
type UncoveredAbstractionError struct {
	Missing []int
}

func (e *UncoveredAbstractionError) Error() string {
	return "abstractions missing from all relationships: " + joinInts(e.Missing)
}

// DuplicateOrderEntryError reports an abstraction listed twice in the
// chapter order.
type DuplicateOrderEntryError struct {
	Index int
}

func (e *DuplicateOrderEntryError) Error() string {
	return fmt.Sprintf("abstraction %d appears more than once in chapter order", e.Index)
}

// IncompleteOrderError reports a chapter order that is not a permutation of
// all abstractions.
type IncompleteOrderError struct {
	Got     int
	Want    int
	Missing []int
}

func (e *IncompleteOrderError) Error() string {
	msg := fmt.Sprintf("chapter order has %d entries, want %d", e.Got, e.Want)
	if len(e.Missing) > 0 {
		msg += "; missing " + joinInts(e.Missing)
	}
	return msg
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
