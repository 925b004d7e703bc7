// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
)

// DefaultMaxLiteralBuffer is the largest literal the parser buffers in memory
// when no LiteralHandler takes it.
const DefaultMaxLiteralBuffer int64 = 64 << 20

// LiteralHandler receives literal payloads before the parser buffers them.
//
// HandleLiteral is called once per literal with the announced size and a
// reader limited to exactly that many bytes. Returning handled == true means
// the handler took ownership of the bytes; whatever it left unread is
// discarded by the parser. Returning handled == false means the handler read
// nothing and the parser must buffer the literal itself.
type LiteralHandler interface {
	HandleLiteral(resp *Response, size int64, r io.Reader) (handled bool, err error)
}

// LiteralHandlerFunc adapts an ordinary function to a LiteralHandler.
type LiteralHandlerFunc func(resp *Response, size int64, r io.Reader) (bool, error)

// HandleLiteral calls f(resp, size, r).
func (f LiteralHandlerFunc) HandleLiteral(resp *Response, size int64, r io.Reader) (bool, error) {
	return f(resp, size, r)
}

// parseError marks a malformed token stream, as opposed to an I/O failure.
type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }

func malformed(format string, args ...any) error {
	return &parseError{msg: fmt.Sprintf(format, args...)}
}

// Parser reads server responses from a byte stream.
//
// A Parser is forward-only: every call consumes stream state, and after a
// *SyntaxError the stream position is undefined.
type Parser struct {
	r *bufio.Reader

	// MaxLiteralBuffer bounds literals buffered without a handler.
	MaxLiteralBuffer int64
}

// NewParser creates a Parser reading from r.
func NewParser(r io.Reader) *Parser {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 4096)
	}
	return &Parser{r: br, MaxLiteralBuffer: DefaultMaxLiteralBuffer}
}

// Responses returns a lazy sequence of responses. The sequence ends after the
// stream is exhausted or after the first error, which is yielded with a nil
// response.
func (p *Parser) Responses(h LiteralHandler) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		for {
			resp, err := p.ReadResponse(h)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

// ReadResponse reads exactly one response line. It returns io.EOF only when
// the stream ends cleanly before the first byte of a response. A malformed
// line yields a *SyntaxError carrying the tokens parsed so far.
func (p *Parser) ReadResponse(h LiteralHandler) (*Response, error) {
	if _, err := p.r.Peek(1); err != nil {
		return nil, err
	}

	resp := &Response{}
	first, err := p.readAtom()
	if err != nil {
		return nil, p.wrap(resp, err)
	}

	switch first {
	case "+":
		resp.ContinuationRequested = true
	case "*":
	default:
		resp.Tag = first
	}

	err = p.readTokens(resp, h, &resp.Tokens, 0)
	resp.open = nil
	if err != nil {
		return nil, p.wrap(resp, err)
	}
	return resp, nil
}

func (p *Parser) wrap(resp *Response, err error) error {
	var pe *parseError
	switch {
	case errors.Is(err, io.EOF):
		return &SyntaxError{Tokens: resp.Tokens, Err: io.ErrUnexpectedEOF}
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &pe):
		return &SyntaxError{Tokens: resp.Tokens, Err: err}
	}
	return err
}

// readTokens reads tokens into dst until the end of the line (closing == 0)
// or until the closing byte of a list.
func (p *Parser) readTokens(resp *Response, h LiteralHandler, dst *[]Token, closing byte) error {
	resp.open = append(resp.open, dst)
	defer func() { resp.open = resp.open[:len(resp.open)-1] }()

	for {
		if err := p.skipSpaces(); err != nil {
			return err
		}
		b, err := p.peek()
		if err != nil {
			return err
		}

		switch {
		case b == '\r' || b == '\n':
			if closing != 0 {
				return malformed("unterminated list")
			}
			return p.readLineEnd()
		case closing != 0 && b == closing:
			_, _ = p.r.ReadByte()
			return nil
		case b == ')':
			return malformed("unexpected ')'")
		case b == '(':
			_, _ = p.r.ReadByte()
			var sub []Token
			err = p.readTokens(resp, h, &sub, ')')
			*dst = append(*dst, List(sub))
			if err != nil {
				return err
			}
		case b == '"':
			s, err := p.readQuoted()
			if err != nil {
				return err
			}
			*dst = append(*dst, Atom(s))
		case b == '{' || (b == '~' && p.peekLiteralAfterTilde()):
			lit, err := p.readLiteral(resp, h)
			if lit != nil {
				*dst = append(*dst, lit)
			}
			if err != nil {
				return err
			}
		default:
			a, err := p.readAtom()
			if err != nil {
				return err
			}
			*dst = append(*dst, Atom(a))
		}
	}
}

func (p *Parser) peek() (byte, error) {
	b, err := p.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *Parser) peekLiteralAfterTilde() bool {
	b, err := p.r.Peek(2)
	return err == nil && b[1] == '{'
}

func (p *Parser) skipSpaces() error {
	for {
		b, err := p.peek()
		if err != nil {
			return err
		}
		if b != ' ' {
			return nil
		}
		_, _ = p.r.ReadByte()
	}
}

func (p *Parser) readLineEnd() error {
	b, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	if b == '\n' {
		return nil
	}
	b, err = p.r.ReadByte()
	if err != nil {
		return err
	}
	if b != '\n' {
		return malformed("expected LF after CR, got %q", b)
	}
	return nil
}

func isAtomDelimiter(b byte) bool {
	switch b {
	case ' ', '(', ')', '"', '\r', '\n':
		return true
	}
	return b < 0x20 || b == 0x7f
}

func (p *Parser) readAtom() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := p.peek()
		if err != nil {
			if err == io.EOF && buf.Len() > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if isAtomDelimiter(b) {
			break
		}
		_, _ = p.r.ReadByte()
		buf.WriteByte(b)
	}
	if buf.Len() == 0 {
		b, _ := p.peek()
		return "", malformed("expected atom, got %q", b)
	}
	return buf.String(), nil
}

func (p *Parser) readQuoted() (string, error) {
	if _, err := p.r.ReadByte(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for {
		ch, err := p.r.ReadByte()
		if err != nil {
			return "", err
		}
		switch ch {
		case '"':
			return buf.String(), nil
		case '\r', '\n':
			return "", malformed("unterminated quoted string")
		case '\\':
			escaped, err := p.r.ReadByte()
			if err != nil {
				return "", err
			}
			buf.WriteByte(escaped)
		default:
			buf.WriteByte(ch)
		}
	}
}

// readLiteral reads a {N}, {N+} or ~{N} marker, the line break after it and
// then exactly N bytes, either into memory or through h.
func (p *Parser) readLiteral(resp *Response, h LiteralHandler) (*Literal, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if b == '~' {
		if b, err = p.r.ReadByte(); err != nil {
			return nil, err
		}
	}
	if b != '{' {
		return nil, malformed("expected '{', got %q", b)
	}

	var digits []byte
	for {
		ch, err := p.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if ch == '}' {
			break
		}
		switch {
		case ch >= '0' && ch <= '9':
			digits = append(digits, ch)
		case ch == '+':
		default:
			return nil, malformed("unexpected character %q in literal marker", ch)
		}
	}
	size, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return nil, malformed("invalid literal size %q", digits)
	}
	if err = p.readLineEnd(); err != nil {
		return nil, err
	}

	lit := &Literal{Size: size}
	lr := &io.LimitedReader{R: p.r, N: size}

	if h != nil {
		handled, err := h.HandleLiteral(resp, size, lr)
		if err != nil {
			return nil, err
		}
		if handled {
			if _, err = io.Copy(io.Discard, lr); err != nil {
				return nil, err
			}
			if lr.N > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			lit.Streamed = true
			return lit, nil
		}
		if lr.N != size {
			return nil, malformed("literal handler consumed %d byte(s) without handling the literal", size-lr.N)
		}
	}

	if size > p.MaxLiteralBuffer {
		return nil, fmt.Errorf("literal of %d bytes: %w", size, ErrLiteralTooLarge)
	}
	lit.Data = make([]byte, size)
	if _, err = io.ReadFull(p.r, lit.Data); err != nil {
		return nil, err
	}
	return lit, nil
}
