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
	"fmt"
	"strconv"
	"strings"
)

// Calendar is a calendar of a knora date literal.
type Calendar string

const (
	Gregorian Calendar = "GREGORIAN"
	Julian    Calendar = "JULIAN"
)

// DateRange is a date literal as an inclusive range of Julian Day Numbers.
type DateRange struct {
	Calendar Calendar
	StartJDN int64
	EndJDN   int64
}

// ParseDateLiteral parses a simple-schema date literal such as
// "GREGORIAN:2017-01-01", "JULIAN:1291 CE" or
// "GREGORIAN:2017-05:2018-02". A date without day or month covers the
// whole month or year.
func ParseDateLiteral(s string) (DateRange, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return DateRange{}, fmt.Errorf("invalid date literal %q", s)
	}
	cal := Calendar(strings.ToUpper(parts[0]))
	if cal != Gregorian && cal != Julian {
		return DateRange{}, fmt.Errorf("unsupported calendar in date literal %q", s)
	}
	start, _, err := parseDatePart(parts[1], cal)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid date literal %q: %v", s, err)
	}
	endPart := parts[1]
	if len(parts) == 3 {
		endPart = parts[2]
	}
	_, end, err := parseDatePart(endPart, cal)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid date literal %q: %v", s, err)
	}
	if end < start {
		return DateRange{}, fmt.Errorf("invalid date literal %q: end before start", s)
	}
	return DateRange{Calendar: cal, StartJDN: start, EndJDN: end}, nil
}

// parseDatePart returns the first and last day of "YYYY[-MM[-DD]][ BC|BCE|AD|CE]".
func parseDatePart(s string, cal Calendar) (int64, int64, error) {
	s = strings.TrimSpace(s)
	bc := false
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		switch strings.ToUpper(s[i+1:]) {
		case "BC", "BCE":
			bc = true
		case "AD", "CE":
		default:
			return 0, 0, fmt.Errorf("unknown era %q", s[i+1:])
		}
		s = s[:i]
	}
	fields := strings.Split(s, "-")
	if len(fields) > 3 {
		return 0, 0, fmt.Errorf("too many date components in %q", s)
	}
	var nums [3]int64
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid date component %q", f)
		}
		nums[i] = n
	}
	year := nums[0]
	if year == 0 {
		return 0, 0, fmt.Errorf("year 0 does not exist")
	}
	if bc {
		// astronomical year numbering
		year = 1 - year
	}
	switch len(fields) {
	case 1:
		return toJDN(cal, year, 1, 1), toJDN(cal, year, 12, 31), nil
	case 2:
		m := nums[1]
		if m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %d", m)
		}
		return toJDN(cal, year, m, 1), toJDN(cal, year, m, daysIn(cal, year, m)), nil
	}
	m, d := nums[1], nums[2]
	if m < 1 || m > 12 || d < 1 || d > daysIn(cal, year, m) {
		return 0, 0, fmt.Errorf("invalid day %d-%d", m, d)
	}
	jdn := toJDN(cal, year, m, d)
	return jdn, jdn, nil
}

func isLeap(cal Calendar, y int64) bool {
	if cal == Julian {
		return mod(y, 4) == 0
	}
	return mod(y, 4) == 0 && (mod(y, 100) != 0 || mod(y, 400) == 0)
}

func daysIn(cal Calendar, y, m int64) int64 {
	switch m {
	case 2:
		if isLeap(cal, y) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}

func mod(a, b int64) int64 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// toJDN converts a date with an astronomical year to a Julian Day Number.
func toJDN(cal Calendar, y, m, d int64) int64 {
	a := floorDiv(14-m, 12)
	yy := y + 4800 - a
	mm := m + 12*a - 3
	jdn := d + floorDiv(153*mm+2, 5) + 365*yy + floorDiv(yy, 4)
	if cal == Julian {
		return jdn - 32083
	}
	return jdn - floorDiv(yy, 100) + floorDiv(yy, 400) - 32045
}
