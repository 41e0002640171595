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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDateLiteral(t *testing.T) {
	cases := []struct {
		in         string
		start, end int64
	}{
		{"GREGORIAN:2000-01-01", 2451545, 2451545},
		{"GREGORIAN:1582-10-15", 2299161, 2299161},
		{"JULIAN:1582-10-04", 2299160, 2299160},
		{"GREGORIAN:2017", 2457755, 2458119},
		{"GREGORIAN:2016-02", 2457420, 2457448},
		{"GREGORIAN:2017-01-01:2017-12-31", 2457755, 2458119},
		{"JULIAN:4713-01-01 BC", 0, 0},
	}
	for _, c := range cases {
		d, err := ParseDateLiteral(c.in)
		require.NoError(t, err, c.in)
		require.Equal(t, c.start, d.StartJDN, c.in)
		require.Equal(t, c.end, d.EndJDN, c.in)
	}
}

func TestParseDateLiteralErrors(t *testing.T) {
	for _, s := range []string{
		"2017-01-01",
		"ISLAMIC:1400",
		"GREGORIAN:2017-13",
		"GREGORIAN:2017-02-30",
		"GREGORIAN:0",
		"GREGORIAN:2018:2017",
		"GREGORIAN:2017 XY",
	} {
		_, err := ParseDateLiteral(s)
		require.Error(t, err, s)
	}
}
