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

// Package repl implements an interactive shell for Gravsearch queries.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/peterh/liner"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/internal/render"
	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/permission"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
)

const (
	ps1 = "gravsearch> "
	ps2 = "...         "

	history = ".gravsearch_history"
)

const help = `Queries span several lines and run at the first empty line.
	:mode search|count|compile  // what to do with queries
	:user [IRI [PROJECT...]]    // run as a user, member of the projects; anonymous without arguments
	:standoff t|f               // include the standoff of text values
	:debug t|f                  // log generated SPARQL
	help                        // this help
	exit                        // exit
`

// ErrExit is returned by Session.Line when the user asks to leave.
var ErrExit = errors.New("exit")

// Engine runs the queries of the shell. *search.Engine implements it.
type Engine interface {
	Search(ctx context.Context, query string, u *permission.User, opts gravsearch.SchemaOptions) (*search.Result, error)
	Count(ctx context.Context, query string) (int, error)
	Compile(query string, count bool, page int64) (*search.Compiled, error)
	Converter() *ontology.Converter
}

// Mode is what a session does with a query.
type Mode string

const (
	ModeSearch  Mode = "search"
	ModeCount   Mode = "count"
	ModeCompile Mode = "compile"
)

// Session is the state of a shell: settings and the query being typed.
type Session struct {
	engine   Engine
	out      io.Writer
	timeout  time.Duration
	mode     Mode
	user     *permission.User
	standoff bool

	code string
}

func NewSession(e Engine, out io.Writer, timeout time.Duration) *Session {
	return &Session{engine: e, out: out, timeout: timeout, mode: ModeSearch, user: permission.Anonymous()}
}

// Pending reports whether a query is being typed.
func (s *Session) Pending() bool { return s.code != "" }

// Line handles one line of input. An empty line ends a query.
func (s *Session) Line(ctx context.Context, line string) error {
	trimmed := strings.TrimSpace(line)
	if s.code == "" {
		if trimmed == "" || trimmed[0] == '#' {
			return nil
		}
		if cmd, args := splitLine(trimmed); cmd[0] == ':' || cmd == "help" || cmd == "exit" {
			return s.command(cmd, strings.TrimSpace(args))
		}
	}
	if trimmed != "" {
		s.code += line + "\n"
		return nil
	}
	if _, err := gravsearch.Parse(s.code); gravsearch.IsIncomplete(err) {
		return nil
	}
	code := s.code
	s.code = ""
	return s.Run(ctx, code)
}

func parseBool(args string) (bool, error) {
	switch args {
	case "t":
		return true, nil
	case "f":
		return false, nil
	}
	v, err := strconv.ParseBool(args)
	if err != nil {
		return false, fmt.Errorf("cannot parse %q as a valid boolean - acceptable values: 't'|'true' or 'f'|'false'", args)
	}
	return v, nil
}

func (s *Session) command(cmd, args string) error {
	switch cmd {
	case ":debug":
		debug, err := parseBool(args)
		if err != nil {
			return err
		}
		if debug {
			clog.SetV(2)
		} else {
			clog.SetV(0)
		}
		fmt.Fprintf(s.out, "Debug set to %t\n", debug)
	case ":standoff":
		v, err := parseBool(args)
		if err != nil {
			return err
		}
		s.standoff = v
	case ":mode":
		switch m := Mode(args); m {
		case ModeSearch, ModeCount, ModeCompile:
			s.mode = m
		default:
			return fmt.Errorf("unknown mode: %q", args)
		}
	case ":user":
		fields := strings.Fields(args)
		if len(fields) == 0 {
			s.user = permission.Anonymous()
			fmt.Fprintln(s.out, "Running as the anonymous user")
			return nil
		}
		u := &permission.User{IRI: quad.IRI(fields[0])}
		for _, p := range fields[1:] {
			u.Projects = append(u.Projects, quad.IRI(p))
		}
		s.user = u
		fmt.Fprintf(s.out, "Running as %s\n", u.IRI)
	case "help":
		fmt.Fprint(s.out, help)
	case "exit":
		return ErrExit
	default:
		return fmt.Errorf("unknown command: %q", cmd)
	}
	return nil
}

// Run runs a query according to the mode of the session and prints the result.
func (s *Session) Run(ctx context.Context, query string) error {
	if s.timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	switch s.mode {
	case ModeCount:
		n, err := s.engine.Count(ctx, query)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%d main resources\n", n)
	case ModeCompile:
		c, err := s.engine.Compile(query, false, -1)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, c.Select.String())
	default:
		res, err := s.engine.Search(ctx, query, s.user, gravsearch.SchemaOptions{MarkupAsStandoff: s.standoff})
		if err != nil {
			return err
		}
		if err := render.Table(s.out, render.NewResult(res, s.engine.Converter())); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.out, "Elapsed time: %g ms\n\n", float64(time.Since(start))/float64(time.Millisecond))
	return nil
}

// Repl reads queries from the terminal until EOF or exit.
func Repl(ctx context.Context, e Engine, timeout time.Duration) error {
	term, err := terminal(history)
	if os.IsNotExist(err) {
		fmt.Printf("creating new history file: %q\n", history)
	}
	defer persist(term, history)

	ses := NewSession(e, os.Stdout, timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		prompt := ps1
		if ses.Pending() {
			prompt = ps2
		}
		line, err := term.Prompt(prompt)
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) != "" {
			term.AppendHistory(line)
		}
		if err := ses.Line(ctx, line); err == ErrExit {
			return nil
		} else if err != nil {
			fmt.Println("Error:", err)
		}
	}
}

// Splits a line into a command and its arguments
// e.g. ":user a b" will be split into ":user" and " a b"
func splitLine(line string) (string, string) {
	var command, arguments string

	line = strings.TrimSpace(line)

	// An empty line/a line consisting of whitespace contains neither command nor arguments
	if len(line) > 0 {
		command = strings.Fields(line)[0]

		// A line containing only a command has no arguments
		if len(line) > len(command) {
			arguments = line[len(command):]
		}
	}

	return command, arguments
}

func terminal(path string) (*liner.State, error) {
	term := liner.NewLiner()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c

		err := persist(term, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to properly clean up terminal: %v\n", err)
			os.Exit(1)
		}

		os.Exit(0)
	}()

	f, err := os.Open(path)
	if err != nil {
		return term, err
	}
	defer f.Close()
	_, err = term.ReadHistory(f)
	return term, err
}

func persist(term *liner.State, path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return fmt.Errorf("could not open %q to append history: %v", path, err)
	}
	defer f.Close()
	_, err = term.WriteHistory(f)
	if err != nil {
		return fmt.Errorf("could not write history to %q: %v", path, err)
	}
	return term.Close()
}
