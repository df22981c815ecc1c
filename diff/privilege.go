package diff

import (
	"fmt"
	"sort"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// privilegeKind names the GRANT target kind for SQL rendering, e.g.
// "TABLE", "SEQUENCE", "FUNCTION".
type privilegeKind string

const (
	PrivTable    privilegeKind = "TABLE"
	PrivSequence privilegeKind = "SEQUENCE"
	PrivFunction privilegeKind = "FUNCTION"
	PrivProcedure privilegeKind = "PROCEDURE"
	PrivSchema   privilegeKind = "SCHEMA"
	PrivType     privilegeKind = "TYPE"
)

// diffACL implements spec §4.1 step 5: compute per-grantee difference of
// (privilege, grantable) tuples, excluding the owner (owners hold ALL
// implicitly), and emit one GRANT per grantable-flag group, one REVOKE
// per group, and a separate REVOKE GRANT OPTION FOR statement for
// grant-option-only removals.
//
// Callers diffing a *created* object pass a nil sourceACL, so every
// grant in its target ACL is emitted; default privileges that would
// already apply to the new object are not taken into account.
func diffACL(kind privilegeKind, objectSQL string, targetID stableid.ID, owner string, sourceACL, targetACL catalog.ACL, requires []stableid.ID) []*change.Change {
	var changes []*change.Change

	grantees := make(map[string]bool)
	for g := range sourceACL {
		if g != owner {
			grantees[g] = true
		}
	}
	for g := range targetACL {
		if g != owner {
			grantees[g] = true
		}
	}

	sortedGrantees := make([]string, 0, len(grantees))
	for g := range grantees {
		sortedGrantees = append(sortedGrantees, g)
	}
	sort.Strings(sortedGrantees)

	for _, grantee := range sortedGrantees {
		src := privSet(sourceACL[grantee])
		tgt := privSet(targetACL[grantee])

		var toGrant, toRevoke []string
		var toRevokeGrantOptionOnly []string

		for kindName, grantable := range tgt {
			if srcGrantable, ok := src[kindName]; !ok || srcGrantable != grantable {
				toGrant = append(toGrant, kindName)
			}
		}
		for kindName, srcGrantable := range src {
			tgtGrantable, ok := tgt[kindName]
			switch {
			case !ok:
				toRevoke = append(toRevoke, kindName)
			case srcGrantable && !tgtGrantable:
				toRevokeGrantOptionOnly = append(toRevokeGrantOptionOnly, kindName)
			}
		}

		aclID := stableid.ACL(targetID, grantee)

		if len(toGrant) > 0 {
			sort.Strings(toGrant)
			withGrant, plain := splitGrantable(toGrant, tgt)
			if len(plain) > 0 {
				changes = append(changes, grantChange(kind, objectSQL, aclID, grantee, plain, false, requires))
			}
			if len(withGrant) > 0 {
				changes = append(changes, grantChange(kind, objectSQL, aclID, grantee, withGrant, true, requires))
			}
		}
		if len(toRevoke) > 0 {
			sort.Strings(toRevoke)
			changes = append(changes, revokeChange(kind, objectSQL, aclID, grantee, toRevoke, requires))
		}
		if len(toRevokeGrantOptionOnly) > 0 {
			sort.Strings(toRevokeGrantOptionOnly)
			changes = append(changes, revokeGrantOptionChange(kind, objectSQL, aclID, grantee, toRevokeGrantOptionOnly, requires))
		}
	}

	return changes
}

func privSet(privs []catalog.Privilege) map[string]bool {
	m := make(map[string]bool, len(privs))
	for _, p := range privs {
		m[p.Kind] = p.Grantable
	}
	return m
}

func splitGrantable(kinds []string, tgt map[string]bool) (withGrant, plain []string) {
	for _, k := range kinds {
		if tgt[k] {
			withGrant = append(withGrant, k)
		} else {
			plain = append(plain, k)
		}
	}
	return
}

func grantChange(kind privilegeKind, objectSQL string, id stableid.ID, grantee string, privs []string, withGrantOption bool, requires []stableid.ID) *change.Change {
	sql := fmt.Sprintf("GRANT %s ON %s %s TO %q", joinPrivs(privs), kind, objectSQL, grantee)
	if withGrantOption {
		sql += " WITH GRANT OPTION"
	}
	sql += ";"
	reqs := append(append([]stableid.ID{}, requires...), stableid.Role(grantee))
	return change.New("GrantPrivilege", "acl", change.OpCreate, change.ScopePrivilege, "", id, sql,
		[]stableid.ID{id}, nil, reqs)
}

func revokeChange(kind privilegeKind, objectSQL string, id stableid.ID, grantee string, privs []string, requires []stableid.ID) *change.Change {
	sql := fmt.Sprintf("REVOKE %s ON %s %s FROM %q;", joinPrivs(privs), kind, objectSQL, grantee)
	reqs := append(append([]stableid.ID{}, requires...), stableid.Role(grantee))
	return change.New("RevokePrivilege", "acl", change.OpDrop, change.ScopePrivilege, "", id, sql,
		nil, []stableid.ID{id}, reqs)
}

func revokeGrantOptionChange(kind privilegeKind, objectSQL string, id stableid.ID, grantee string, privs []string, requires []stableid.ID) *change.Change {
	sql := fmt.Sprintf("REVOKE GRANT OPTION FOR %s ON %s %s FROM %q;", joinPrivs(privs), kind, objectSQL, grantee)
	reqs := append(append([]stableid.ID{}, requires...), stableid.Role(grantee))
	return change.New("RevokeGrantOption", "acl", change.OpAlter, change.ScopePrivilege, "", id, sql,
		nil, nil, reqs)
}

func joinPrivs(privs []string) string {
	out := privs[0]
	for _, p := range privs[1:] {
		out += ", " + p
	}
	return out
}

// diffComment emits a single CreateCommentOn or DropComment change for an
// object whose comment text differs between source and target, and nil
// when the comments are equal. Empty target
// comment with a non-empty source comment drops it; non-empty target
// always (re)creates it, since COMMENT ON is itself idempotent-replace.
func diffComment(kind string, objectSQL string, targetID stableid.ID, sourceComment, targetComment string, requires []stableid.ID) *change.Change {
	commentID := stableid.Comment(targetID)
	if targetComment == "" {
		if sourceComment == "" {
			return nil
		}
		sql := fmt.Sprintf("COMMENT ON %s %s IS NULL;", kind, objectSQL)
		return change.New("DropComment", "comment", change.OpDrop, change.ScopeComment, "", targetID, sql,
			nil, []stableid.ID{commentID}, requires)
	}
	if sourceComment == targetComment {
		return nil
	}
	sql := fmt.Sprintf("COMMENT ON %s %s IS %s;", kind, objectSQL, quoteLiteral(targetComment))
	reqs := append(append([]stableid.ID{}, requires...), targetID)
	return change.New("CreateCommentOn"+kind, "comment", change.OpCreate, change.ScopeComment, "", targetID, sql,
		[]stableid.ID{commentID}, nil, reqs)
}

func quoteLiteral(s string) string {
	out := "'"
	for _, r := range s {
		if r == '\'' {
			out += "''"
		} else {
			out += string(r)
		}
	}
	return out + "'"
}
