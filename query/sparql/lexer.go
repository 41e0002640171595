// Copyright 2019 The Gravsearch Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sparql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrParseMore is returned when the query ends before it is complete.
var ErrParseMore = errors.New("sparql: unexpected end of query")

// ParseError describes a syntax error.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sparql: %s at offset %d", e.Msg, e.Pos)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokString
	tokLangTag
	tokInteger
	tokDecimal
	tokDouble
	tokWord
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of query"
	}
	return strconv.Quote(t.text)
}

type lexer struct {
	s    string
	pos  int
	toks []token
}

func lex(s string) ([]token, error) {
	l := &lexer{s: s}
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, t)
		if t.kind == tokEOF {
			return l.toks, nil
		}
	}
}

func isNameChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isVarChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) peekRune(off int) rune {
	if l.pos+off >= len(l.s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.s[l.pos+off:])
	return r
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.s) {
		c := l.s[l.pos]
		switch {
		case c == '#':
			for l.pos < len(l.s) && l.s[l.pos] != '\n' {
				l.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.s) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.s[l.pos]
	switch {
	case c == '<':
		if end := l.iriEnd(); end > 0 {
			l.pos = end + 1
			return token{kind: tokIRI, text: l.s[start+1 : end], pos: start}, nil
		}
		if l.peekRune(1) == '=' {
			l.pos += 2
			return token{kind: tokPunct, text: "<=", pos: start}, nil
		}
		l.pos++
		return token{kind: tokPunct, text: "<", pos: start}, nil
	case c == '?' || c == '$':
		l.pos++
		for l.pos < len(l.s) {
			r, n := utf8.DecodeRuneInString(l.s[l.pos:])
			if !isVarChar(r) {
				break
			}
			l.pos += n
		}
		if l.pos == start+1 {
			return token{}, &ParseError{Pos: start, Msg: "empty variable name"}
		}
		return token{kind: tokVar, text: l.s[start+1 : l.pos], pos: start}, nil
	case c == '"' || c == '\'':
		return l.lexString(c)
	case c == '@':
		l.pos++
		for l.pos < len(l.s) && (isNameChar(rune(l.s[l.pos]))) {
			l.pos++
		}
		return token{kind: tokLangTag, text: l.s[start+1 : l.pos], pos: start}, nil
	case c >= '0' && c <= '9', c == '-' && l.peekRune(1) >= '0' && l.peekRune(1) <= '9':
		return l.lexNumber(), nil
	}
	if r := l.peekRune(0); r == ':' || r == '_' || unicode.IsLetter(r) {
		return l.lexWord(), nil
	}
	for _, p := range []string{"^^", "&&", "||", "!=", ">=", "{", "}", "(", ")", ".", ";", ",", "*", "+", "=", ">", "!"} {
		if strings.HasPrefix(l.s[l.pos:], p) {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, pos: start}, nil
		}
	}
	return token{}, &ParseError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
}

// iriEnd returns the index of the '>' closing an IRI reference at the
// current position, or -1 if the '<' is an operator.
func (l *lexer) iriEnd() int {
	for i := l.pos + 1; i < len(l.s); i++ {
		switch l.s[i] {
		case '>':
			if i == l.pos+1 {
				return -1
			}
			return i
		case ' ', '\t', '\n', '\r', '<', '"', '{', '}', '|', '^', '`', '\\':
			return -1
		}
	}
	return -1
}

func (l *lexer) lexWord() token {
	start := l.pos
	for l.pos < len(l.s) {
		r, n := utf8.DecodeRuneInString(l.s[l.pos:])
		if r == '.' {
			// a dot only belongs to a name if a name character follows
			if nr := l.peekRune(n); nr != 0 && isNameChar(nr) {
				l.pos += n
				continue
			}
			break
		}
		if !isNameChar(r) && r != ':' {
			break
		}
		l.pos += n
	}
	text := l.s[start:l.pos]
	if strings.Contains(text, ":") {
		return token{kind: tokPName, text: text, pos: start}
	}
	return token{kind: tokWord, text: text, pos: start}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	kind := tokInteger
	if l.s[l.pos] == '-' {
		l.pos++
	}
	digits := func() {
		for l.pos < len(l.s) && l.s[l.pos] >= '0' && l.s[l.pos] <= '9' {
			l.pos++
		}
	}
	digits()
	if l.pos+1 < len(l.s) && l.s[l.pos] == '.' && l.s[l.pos+1] >= '0' && l.s[l.pos+1] <= '9' {
		kind = tokDecimal
		l.pos++
		digits()
	}
	if l.pos < len(l.s) && (l.s[l.pos] == 'e' || l.s[l.pos] == 'E') {
		kind = tokDouble
		l.pos++
		if l.pos < len(l.s) && (l.s[l.pos] == '+' || l.s[l.pos] == '-') {
			l.pos++
		}
		digits()
	}
	return token{kind: kind, text: l.s[start:l.pos], pos: start}
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for {
		if l.pos >= len(l.s) {
			return token{}, ErrParseMore
		}
		c := l.s[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		case '\n', '\r':
			return token{}, &ParseError{Pos: l.pos, Msg: "newline in string literal"}
		case '\\':
			if l.pos+1 >= len(l.s) {
				return token{}, ErrParseMore
			}
			e := l.s[l.pos+1]
			l.pos += 2
			switch e {
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '"', '\'', '\\':
				b.WriteByte(e)
			case 'u', 'U':
				n := 4
				if e == 'U' {
					n = 8
				}
				if l.pos+n > len(l.s) {
					return token{}, ErrParseMore
				}
				v, err := strconv.ParseUint(l.s[l.pos:l.pos+n], 16, 32)
				if err != nil {
					return token{}, &ParseError{Pos: l.pos, Msg: "invalid unicode escape"}
				}
				b.WriteRune(rune(v))
				l.pos += n
			default:
				return token{}, &ParseError{Pos: l.pos - 2, Msg: fmt.Sprintf("invalid escape sequence \\%c", e)}
			}
		default:
			r, n := utf8.DecodeRuneInString(l.s[l.pos:])
			b.WriteRune(r)
			l.pos += n
		}
	}
}
