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

package clog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	lines []string
	level int
}

func (r *recorder) Infof(format string, args ...interface{}) {
	r.lines = append(r.lines, "I "+fmt.Sprintf(format, args...))
}
func (r *recorder) Warningf(format string, args ...interface{}) {
	r.lines = append(r.lines, "W "+fmt.Sprintf(format, args...))
}
func (r *recorder) Errorf(format string, args ...interface{}) {
	r.lines = append(r.lines, "E "+fmt.Sprintf(format, args...))
}
func (r *recorder) Fatalf(format string, args ...interface{}) {}
func (r *recorder) SetV(level int)                            { r.level = level }

func TestScope(t *testing.T) {
	rec := &recorder{}
	old := logger
	SetLogger(rec)
	defer SetLogger(old)

	s := Scope("q1")
	s.Infof("prequery returned %d rows", 3)
	s.Warningf("ignoring ORDER BY")
	s.Errorf("failed: %v", "boom")
	require.Equal(t, []string{
		"I [q1] prequery returned 3 rows",
		"W [q1] ignoring ORDER BY",
		"E [q1] failed: boom",
	}, rec.lines)

	SetV(2)
	defer SetV(0)
	require.True(t, V(2))
	require.False(t, V(3))
	require.Equal(t, 2, rec.level)
}
