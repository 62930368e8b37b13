package rolemap

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// ManagedRoleMarker identifies roles owned by the engine. Any role whose
	// identifier contains it is removed before each synchronization.
	ManagedRoleMarker = "virtual_y"
	// BaselineRole is granted when require_active is set, the membership
	// value is non-empty, and no mapping rule matched.
	BaselineRole = "virtual_y"
)

// IsManaged reports whether a role identifier is owned by the engine.
func IsManaged(role string) bool {
	return strings.Contains(role, ManagedRoleMarker)
}

// Rule maps one external membership value onto one local role.
type Rule struct {
	Pattern string
	Role    string
}

// ParseMapping parses the serialized "pattern:role;pattern:role;..." table.
// Malformed entries are returned separately so callers can log and continue;
// they never abort the parse.
func ParseMapping(serialized string) (rules []Rule, malformed []string) {
	if strings.TrimSpace(serialized) == "" {
		return nil, nil
	}
	for _, entry := range strings.Split(serialized, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pattern, role, ok := strings.Cut(entry, ":")
		if !ok || pattern == "" || role == "" {
			malformed = append(malformed, entry)
			continue
		}
		rules = append(rules, Rule{Pattern: pattern, Role: role})
	}
	return rules, malformed
}

// Resolve computes the target managed role set for a membership value.
// Matching is the union of all rules whose pattern equals the value; rule
// order never affects the result.
func Resolve(rules []Rule, membershipValue string, requireActive bool) []string {
	seen := make(map[string]struct{})
	var candidates []string
	for _, rule := range rules {
		if rule.Pattern == membershipValue {
			if _, dup := seen[rule.Role]; !dup {
				seen[rule.Role] = struct{}{}
				candidates = append(candidates, rule.Role)
			}
		}
	}
	if requireActive && membershipValue != "" && len(candidates) == 0 {
		candidates = []string{BaselineRole}
	}
	sort.Strings(candidates)
	return candidates
}

// Sync merges the resolved candidates into an existing role set: every
// managed role is dropped, non-managed roles are kept untouched, and the
// candidates are appended. The result is deterministic and replay-safe.
func Sync(current []string, candidates []string) []string {
	final := make([]string, 0, len(current)+len(candidates))
	for _, role := range current {
		if !IsManaged(role) {
			final = append(final, role)
		}
	}
	return append(final, candidates...)
}

func membershipValueOf(member map[string]interface{}, field string) (string, error) {
	v, ok := member[field]
	if !ok {
		return "", nil
	}
	switch value := v.(type) {
	case string:
		return value, nil
	case fmt.Stringer:
		return value.String(), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}
