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

package permission

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/voc/knora"
)

const (
	project = quad.IRI("http://rdfh.ch/projects/0001")
	alice   = quad.IRI("http://rdfh.ch/users/alice")
	bob     = quad.IRI("http://rdfh.ch/users/bob")
)

func TestParseLiteral(t *testing.T) {
	entries, err := ParseLiteral("CR knora-admin:Creator|M knora-base:ProjectMember|V knora-admin:KnownUser,knora-admin:UnknownUser|RV http://rdfh.ch/groups/0001/g")
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Permission: ChangeRights, Groups: []quad.IRI{knora.Creator}},
		{Permission: Modify, Groups: []quad.IRI{knora.ProjectMember}},
		{Permission: View, Groups: []quad.IRI{knora.KnownUser, knora.UnknownUser}},
		{Permission: RestrictedView, Groups: []quad.IRI{"http://rdfh.ch/groups/0001/g"}},
	}, entries)

	for _, bad := range []string{"X knora-admin:Creator", "CR", "V ,"} {
		_, err := ParseLiteral(bad)
		require.Error(t, err, bad)
	}
	entries, err = ParseLiteral("")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSystemAdminScenario(t *testing.T) {
	const lit = "CR knora-base:SystemAdmin|V unknownUser"

	_, ok := GetUserPermission(bob, project, lit, &User{IRI: alice})
	require.False(t, ok, "a user in no group gets nothing")

	p, ok := GetUserPermission(bob, project, lit, &User{IRI: alice, SystemAdmin: true})
	require.True(t, ok)
	require.Equal(t, ChangeRights, p)
}

func TestPseudoGroups(t *testing.T) {
	const lit = "CR knora-admin:Creator|M knora-admin:ProjectMember|V knora-admin:KnownUser|RV knora-admin:UnknownUser"
	cases := []struct {
		name string
		user *User
		exp  Permission
	}{
		{"anonymous", Anonymous(), RestrictedView},
		{"known", &User{IRI: alice}, View},
		{"member", &User{IRI: alice, Projects: []quad.IRI{project}}, Modify},
		{"other project", &User{IRI: alice, Projects: []quad.IRI{"http://rdfh.ch/projects/0002"}}, View},
		{"creator", &User{IRI: bob}, ChangeRights},
	}
	for _, c := range cases {
		p, ok := GetUserPermission(bob, project, lit, c.user)
		assert.True(t, ok, c.name)
		assert.Equal(t, c.exp, p, c.name)
	}
}

func TestHighestWins(t *testing.T) {
	// entry order does not matter
	for _, lit := range []string{
		"V knora-admin:KnownUser|D http://rdfh.ch/groups/g",
		"D http://rdfh.ch/groups/g|V knora-admin:KnownUser",
	} {
		p, ok := GetUserPermission(bob, project, lit, &User{IRI: alice, Groups: []quad.IRI{"http://rdfh.ch/groups/g"}})
		require.True(t, ok)
		require.Equal(t, Delete, p, lit)
	}
}

func TestMonotonic(t *testing.T) {
	literals := []string{
		"CR knora-admin:Creator|V knora-admin:ProjectMember",
		"M http://rdfh.ch/groups/a|RV knora-admin:KnownUser",
		"D knora-admin:SystemAdmin",
		"V http://rdfh.ch/groups/b,http://rdfh.ch/groups/a",
		"V knora-admin:UnknownUser",
		"RV knora-admin:UnknownUser|V knora-admin:KnownUser|M knora-admin:ProjectMember",
	}
	groups := []quad.IRI{"http://rdfh.ch/groups/a", "http://rdfh.ch/groups/b"}
	users := []*User{
		Anonymous(),
		{IRI: alice},
		{IRI: alice, Groups: groups[:1]},
		{IRI: alice, Groups: groups},
		{IRI: alice, Groups: groups, Projects: []quad.IRI{project}},
		{IRI: alice, Groups: groups, Projects: []quad.IRI{project}, SystemAdmin: true},
	}
	for _, lit := range literals {
		prev, prevOK := None, false
		for i, u := range users {
			p, ok := GetUserPermission(bob, project, lit, u)
			if prevOK {
				require.True(t, ok, "%s: user %d", lit, i)
				require.GreaterOrEqual(t, int(p), int(prev), "%s: user %d", lit, i)
			}
			prev, prevOK = p, ok
		}
	}
}

func TestUnknownUserGrantReachesEveryone(t *testing.T) {
	for _, u := range []*User{
		Anonymous(),
		{IRI: alice},
		{IRI: alice, Projects: []quad.IRI{project}},
		{IRI: bob},
		{IRI: alice, SystemAdmin: true},
	} {
		p, ok := GetUserPermission(bob, project, "V knora-admin:UnknownUser", u)
		require.True(t, ok, "%s", u.IRI)
		require.Equal(t, View, p)
	}
}

func TestInvalidLiteral(t *testing.T) {
	_, ok := GetUserPermission(bob, project, "garbage", &User{IRI: alice, SystemAdmin: true})
	require.False(t, ok)
}
