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

package gravsearch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind int

const (
	// QuerySyntax is a malformed or unsupported query.
	QuerySyntax ErrorKind = iota + 1
	// TypeInference is an entity whose type is ambiguous, contradictory or unknown.
	TypeInference
	// OntologyConstraint is a class or property the ontology does not allow.
	OntologyConstraint
	// DialectUnsupported is an unknown triplestore dialect.
	DialectUnsupported
	// TriplestoreCommunication is a failure talking to the triplestore.
	TriplestoreCommunication
	// InconsistentRepositoryData is data violating the repository invariants.
	InconsistentRepositoryData
)

func (k ErrorKind) String() string {
	switch k {
	case QuerySyntax:
		return "query syntax error"
	case TypeInference:
		return "type inference error"
	case OntologyConstraint:
		return "ontology constraint violation"
	case DialectUnsupported:
		return "unsupported dialect"
	case TriplestoreCommunication:
		return "triplestore communication error"
	case InconsistentRepositoryData:
		return "inconsistent repository data"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error type returned by the Gravsearch pipeline.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err != nil:
		return e.Kind.String() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf returns an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns err as an *Error of the given kind. An error that already
// is an *Error keeps its kind.
func Wrap(kind ErrorKind, err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
