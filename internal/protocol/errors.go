package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every *SyntaxError through errors.Is.
	ErrSyntax = errors.New("protocol syntax error")

	// ErrLiteralTooLarge is returned when a literal exceeds the parser's
	// buffering limit and no LiteralHandler took it.
	ErrLiteralTooLarge = errors.New("literal exceeds buffer limit")

	// ErrNoSuchToken is returned by Response accessors for an index past the
	// end of the token list.
	ErrNoSuchToken = errors.New("no such token")

	// ErrUnexpectedToken is returned by Response accessors when a token has
	// the wrong kind.
	ErrUnexpectedToken = errors.New("unexpected token kind")
)

// SyntaxError reports a malformed response. Tokens holds whatever was parsed
// before the failure, for diagnostics. The stream is not usable afterwards.
type SyntaxError struct {
	Tokens []Token
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("protocol syntax error after %d token(s) %s: %v", len(e.Tokens), List(e.Tokens).String(), e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSyntax) true for any *SyntaxError.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }
