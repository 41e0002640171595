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

package lru

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEviction(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Put("c", 3)

	_, ok = c.Get("b")
	require.False(t, ok, "least recently used entry should be evicted")
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 2, c.Len())
}

func TestPutReplaces(t *testing.T) {
	c := New[string, string](1)
	c.Put("k", "old")
	c.Put("k", "new")
	v, _ := c.Get("k")
	require.Equal(t, "new", v)
	require.Equal(t, 1, c.Len())
}

func TestDel(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 10; i++ {
		c.Put(i, i*i)
	}
	c.Del(3)
	c.Del(42)
	_, ok := c.Get(3)
	require.False(t, ok)
	require.Equal(t, 9, c.Len())
	v, ok := c.Get(9)
	require.True(t, ok)
	require.Equal(t, 81, v)
}
