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

// Package permission evaluates knora permission literals such as
//
//	CR knora-admin:Creator|M knora-admin:ProjectMember|V knora-admin:KnownUser
//
// against a requesting user.
package permission

import (
	"fmt"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Permission is an object access level. Higher levels imply lower ones.
type Permission int

const (
	None Permission = iota
	RestrictedView
	View
	Modify
	ChangeRights
	Delete
)

var codes = map[string]Permission{
	"RV": RestrictedView,
	"V":  View,
	"M":  Modify,
	"CR": ChangeRights,
	"D":  Delete,
}

// String returns the abbreviation used in permission literals.
func (p Permission) String() string {
	switch p {
	case None:
		return "none"
	case RestrictedView:
		return "RV"
	case View:
		return "V"
	case Modify:
		return "M"
	case ChangeRights:
		return "CR"
	case Delete:
		return "D"
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

// Entry grants a permission to a set of groups.
type Entry struct {
	Permission Permission
	Groups     []quad.IRI
}

// ParseLiteral parses a permission literal. Built-in groups may be written
// with a knora-admin: or knora-base: prefix; other group names are kept as
// they are.
func ParseLiteral(lit string) ([]Entry, error) {
	lit = strings.TrimSpace(lit)
	if lit == "" {
		return nil, nil
	}
	var out []Entry
	for _, part := range strings.Split(lit, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i := strings.IndexAny(part, " \t")
		if i < 0 {
			return nil, fmt.Errorf("permission: entry %q has no groups", part)
		}
		p, ok := codes[part[:i]]
		if !ok {
			return nil, fmt.Errorf("permission: unknown permission code %q", part[:i])
		}
		e := Entry{Permission: p}
		for _, g := range strings.Split(part[i+1:], ",") {
			if g = strings.TrimSpace(g); g != "" {
				e.Groups = append(e.Groups, groupIRI(g))
			}
		}
		if len(e.Groups) == 0 {
			return nil, fmt.Errorf("permission: entry %q has no groups", part)
		}
		out = append(out, e)
	}
	return out, nil
}

func groupIRI(g string) quad.IRI {
	switch {
	case strings.HasPrefix(g, knora.AdminPrefix):
		return quad.IRI(knora.AdminNS + g[len(knora.AdminPrefix):])
	case strings.HasPrefix(g, knora.Prefix):
		return quad.IRI(knora.AdminNS + g[len(knora.Prefix):])
	case strings.HasPrefix(g, knora.NS):
		return quad.IRI(knora.AdminNS + g[len(knora.NS):])
	}
	return quad.IRI(g)
}

// User is the identity a query runs for.
type User struct {
	IRI            quad.IRI
	Groups         []quad.IRI
	Projects       []quad.IRI // projects the user is a member of
	ProjectAdminOf []quad.IRI
	SystemAdmin    bool
	Anonymous      bool
}

// Anonymous returns the unauthenticated user.
func Anonymous() *User {
	return &User{IRI: knora.AnonymousUser, Anonymous: true}
}

func contains(list []quad.IRI, iri quad.IRI) bool {
	for _, v := range list {
		if v == iri {
			return true
		}
	}
	return false
}

// EffectiveGroups returns the groups u belongs to with respect to an entity
// created by creator and attached to project.
func (u *User) EffectiveGroups(creator, project quad.IRI) map[quad.IRI]struct{} {
	groups := make(map[quad.IRI]struct{}, len(u.Groups)+4)
	for _, g := range u.Groups {
		groups[g] = struct{}{}
	}
	// UnknownUser, KnownUser and ProjectMember are nested: a member of one
	// is a member of those before it.
	groups[knora.UnknownUser] = struct{}{}
	if u.Anonymous {
		return groups
	}
	groups[knora.KnownUser] = struct{}{}
	if project != "" && contains(u.Projects, project) {
		groups[knora.ProjectMember] = struct{}{}
	}
	if project != "" && contains(u.ProjectAdminOf, project) {
		groups[knora.ProjectAdmin] = struct{}{}
	}
	if creator != "" && creator == u.IRI {
		groups[knora.Creator] = struct{}{}
	}
	if u.SystemAdmin {
		groups[knora.SystemAdmin] = struct{}{}
	}
	return groups
}

// GetUserPermission returns the highest permission any entry of the literal
// grants to a group of the user. It reports false if no entry matches or the
// literal cannot be parsed.
func GetUserPermission(creator, project quad.IRI, literal string, u *User) (Permission, bool) {
	entries, err := ParseLiteral(literal)
	if err != nil {
		return None, false
	}
	return Max(entries, u.EffectiveGroups(creator, project))
}

// Max returns the highest permission granted to any of groups.
func Max(entries []Entry, groups map[quad.IRI]struct{}) (Permission, bool) {
	best, found := None, false
	for _, e := range entries {
		if found && e.Permission <= best {
			continue
		}
		for _, g := range e.Groups {
			if _, ok := groups[g]; ok {
				best, found = e.Permission, true
				break
			}
		}
	}
	return best, found
}
