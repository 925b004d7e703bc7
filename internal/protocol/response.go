// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ResponseKind discriminates the three kinds of server response lines.
type ResponseKind int

const (
	// KindUntagged is a "*"-prefixed server data or status line.
	KindUntagged ResponseKind = iota
	// KindTagged is the completion result of a client command.
	KindTagged
	// KindContinuation is a "+"-prefixed continuation request.
	KindContinuation
)

func (k ResponseKind) String() string {
	switch k {
	case KindTagged:
		return "tagged"
	case KindContinuation:
		return "continuation"
	default:
		return "untagged"
	}
}

const alertMarker = "[ALERT]"

// Response is one parsed server response line.
//
// Tag and ContinuationRequested are mutually exclusive. Tokens never contain
// the leading tag, "*" or "+".
type Response struct {
	Tag                   string
	ContinuationRequested bool
	Tokens                []Token

	// open holds the lists still being parsed, outermost first.
	open []*[]Token
}

// Enclosing returns the tokens read so far in the innermost list that is
// still open, or the top-level tokens when no list is open. LiteralHandlers
// use it to see which item a literal belongs to before the list completes.
func (r *Response) Enclosing() List {
	if len(r.open) == 0 {
		return List(r.Tokens)
	}
	return List(*r.open[len(r.open)-1])
}

// Depth returns how many lists enclose the token being parsed; 0 means the
// top level of the line.
func (r *Response) Depth() int {
	return max(len(r.open)-1, 0)
}

// Kind returns the kind of the response line.
func (r *Response) Kind() ResponseKind {
	switch {
	case r.ContinuationRequested:
		return KindContinuation
	case r.Tag != "":
		return KindTagged
	default:
		return KindUntagged
	}
}

// IsTagged reports whether the response completes the command with tag.
func (r *Response) IsTagged(tag string) bool {
	return !r.ContinuationRequested && r.Tag != "" && r.Tag == tag
}

// AlertText returns the human-readable alert carried by the response. The
// second token must be "[ALERT]" (any case); every following token is
// rendered and followed by a single space.
func (r *Response) AlertText() (string, bool) {
	if len(r.Tokens) < 2 || !tokenEqualFold(r.Tokens[1], alertMarker) {
		return "", false
	}

	var sb strings.Builder
	for _, t := range r.Tokens[2:] {
		sb.WriteString(t.String())
		sb.WriteByte(' ')
	}
	return sb.String(), true
}

// Status returns the upper-cased first token, which holds the condition
// (OK, NO, BAD, BYE, PREAUTH) for status responses. Empty if the first token
// is not an atom.
func (r *Response) Status() string {
	if len(r.Tokens) == 0 {
		return ""
	}
	a, ok := r.Tokens[0].(Atom)
	if !ok {
		return ""
	}
	return strings.ToUpper(string(a))
}

// IsStatus reports whether the first token equals name, ignoring case.
func (r *Response) IsStatus(name string) bool {
	return len(r.Tokens) > 0 && tokenEqualFold(r.Tokens[0], name)
}

// Text joins the tokens starting at index from with single spaces. It is
// used to recover human-readable response text.
func (r *Response) Text(from int) string {
	if from >= len(r.Tokens) {
		return ""
	}
	parts := make([]string, 0, len(r.Tokens)-from)
	for _, t := range r.Tokens[from:] {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}

// String returns the text of the token at index i, or "" if absent.
func (r *Response) String(i int) string {
	if i < 0 || i >= len(r.Tokens) {
		return ""
	}
	return r.Tokens[i].String()
}

// Number parses the token at index i as an unsigned decimal number.
func (r *Response) Number(i int) (uint64, error) {
	if i < 0 || i >= len(r.Tokens) {
		return 0, fmt.Errorf("token %d: %w", i, ErrNoSuchToken)
	}
	a, ok := r.Tokens[i].(Atom)
	if !ok {
		return 0, fmt.Errorf("token %d is not an atom: %w", i, ErrUnexpectedToken)
	}
	n, err := strconv.ParseUint(string(a), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token %d: %w", i, err)
	}
	return n, nil
}

// List returns the token at index i as a list.
func (r *Response) List(i int) (List, bool) {
	if i < 0 || i >= len(r.Tokens) {
		return nil, false
	}
	l, ok := r.Tokens[i].(List)
	return l, ok
}

// Format renders the response for diagnostics, e.g. "#A001# (OK done)".
func (r *Response) Format() string {
	prefix := r.Tag
	if r.ContinuationRequested {
		prefix = "+"
	}
	return "#" + prefix + "# " + List(r.Tokens).String()
}
