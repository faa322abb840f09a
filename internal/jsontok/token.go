// Package jsontok flattens a small JSON document into a jsmn-style token array
// and locates properties in it without building a tree.
package jsontok

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind tags a token.
type Kind uint8

const (
	Undefined Kind = iota
	Object
	Array
	String
	Primitive
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Array:
		return "array"
	case String:
		return "string"
	case Primitive:
		return "primitive"
	default:
		return "undefined"
	}
}

// Token is one JSON value or key. Start/End are byte offsets into the source;
// string spans exclude the quotes. Parent is -1 for the root.
//
// Keys are children of their object and a value is the child of its key, so
// the value of a property always sits at the index right after the key.
type Token struct {
	Kind   Kind
	Start  int
	End    int
	Parent int
}

// DefaultLimit bounds the token array for the fixed-size responses we parse.
const DefaultLimit = 500

var (
	ErrMalformed     = errors.New("jsontok: malformed document")
	ErrTooManyTokens = errors.New("jsontok: token limit exceeded")
)

type frame struct {
	idx    int
	object bool
	key    int // pending key waiting for its value, -1 when none
}

// Tokenize splits src into tokens. At most limit tokens are produced; a
// non-positive limit means DefaultLimit.
func Tokenize(src []byte, limit int) ([]Token, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()

	tokens := make([]Token, 0, 64)
	stack := make([]frame, 0, 8)
	prev := 0

	for {
		t, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d: %v", ErrMalformed, dec.InputOffset(), err)
		}
		end := int(dec.InputOffset())
		start := skipSeparators(src, prev)
		prev = end

		if d, ok := t.(json.Delim); ok && (d == '}' || d == ']') {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			tokens[top.idx].End = end
			if len(stack) == 0 {
				return done(src, end, tokens)
			}
			continue
		}

		if len(tokens) >= limit {
			return nil, ErrTooManyTokens
		}

		parent := -1
		isKey := false
		if n := len(stack); n > 0 {
			top := &stack[n-1]
			switch {
			case !top.object:
				parent = top.idx
			case top.key < 0:
				parent = top.idx
				isKey = true
			default:
				parent = top.key
				top.key = -1
			}
		}

		idx := len(tokens)
		switch v := t.(type) {
		case json.Delim:
			tokens = append(tokens, Token{Kind: kindOf(v), Start: start, End: -1, Parent: parent})
			stack = append(stack, frame{idx: idx, object: v == '{', key: -1})
			continue
		case string:
			tokens = append(tokens, Token{Kind: String, Start: start + 1, End: end - 1, Parent: parent})
		default:
			tokens = append(tokens, Token{Kind: Primitive, Start: start, End: end, Parent: parent})
		}

		if isKey {
			stack[len(stack)-1].key = idx
		}
		if len(stack) == 0 {
			// scalar document
			return done(src, end, tokens)
		}
	}

	if len(stack) > 0 || len(tokens) == 0 {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}
	return tokens, nil
}

// done accepts tokens when only whitespace follows the root value.
func done(src []byte, end int, tokens []Token) ([]Token, error) {
	for i := end; i < len(src); i++ {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return nil, fmt.Errorf("%w at offset %d: trailing data after root", ErrMalformed, i)
		}
	}
	return tokens, nil
}

func kindOf(d json.Delim) Kind {
	if d == '{' {
		return Object
	}
	return Array
}

func skipSeparators(src []byte, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n', ',', ':':
			i++
		default:
			return i
		}
	}
	return i
}
