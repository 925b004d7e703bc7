// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package protocol implements the tokenized response model of an IMAP-style
// mail server and a streaming parser that produces it.
//
// A server response is a line of whitespace-delimited tokens. Every token is
// one of three kinds, modelled as a sealed [Token] interface:
//   - [Atom]: a bare atom, a quoted string or NIL;
//   - [List]: a parenthesized, possibly nested, ordered list of tokens;
//   - [*Literal]: a {N}-prefixed run of exactly N raw bytes.
//
// Literal bytes can be redirected to the caller through a [LiteralHandler]
// so that large payloads (message bodies) are never buffered whole.
package protocol

import (
	"strconv"
	"strings"
)

// Token is a single element of a server response. The interface is sealed:
// the only implementations are [Atom], [List] and [*Literal].
type Token interface {
	// String renders the token as text. Lists render in parenthesized form,
	// literals render their buffered bytes (empty when streamed).
	String() string

	isToken()
}

// Atom is an atom, a decoded quoted string or the NIL keyword.
type Atom string

func (a Atom) String() string { return string(a) }

func (Atom) isToken() {}

// List is a parenthesized list of tokens.
type List []Token

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, t := range l {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (List) isToken() {}

// Literal is a length-prefixed binary-safe token.
type Literal struct {
	// Size is the byte count announced by the {N} marker.
	Size int64

	// Data holds the literal bytes when the parser buffered them.
	// It is nil when Streamed is true.
	Data []byte

	// Streamed reports that the bytes were consumed by a LiteralHandler.
	Streamed bool
}

func (l *Literal) String() string {
	if l.Streamed {
		return "{" + strconv.FormatInt(l.Size, 10) + "}"
	}
	return string(l.Data)
}

func (*Literal) isToken() {}

// tokenEqualFold reports whether t is an atom or buffered literal whose text
// equals s under Unicode case folding.
func tokenEqualFold(t Token, s string) bool {
	switch v := t.(type) {
	case Atom:
		return strings.EqualFold(string(v), s)
	case *Literal:
		return !v.Streamed && strings.EqualFold(string(v.Data), s)
	}
	return false
}
