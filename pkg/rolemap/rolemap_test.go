package rolemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapping(t *testing.T) {
	rules, malformed := ParseMapping("GOLD:virtual_y_premium;SILVER:virtual_y;GOLD:virtual_y_trial")
	require.Empty(t, malformed)
	assert.Equal(t, []Rule{
		{Pattern: "GOLD", Role: "virtual_y_premium"},
		{Pattern: "SILVER", Role: "virtual_y"},
		{Pattern: "GOLD", Role: "virtual_y_trial"},
	}, rules)
}

func TestParseMapping_Empty(t *testing.T) {
	rules, malformed := ParseMapping("   ")
	assert.Empty(t, rules)
	assert.Empty(t, malformed)
}

func TestParseMapping_MalformedEntriesAreSkippedNotFatal(t *testing.T) {
	rules, malformed := ParseMapping("GOLD:virtual_y_premium;nocolon;:missingpattern;missingrole:;SILVER:virtual_y")
	assert.Equal(t, []Rule{
		{Pattern: "GOLD", Role: "virtual_y_premium"},
		{Pattern: "SILVER", Role: "virtual_y"},
	}, rules)
	assert.Equal(t, []string{"nocolon", ":missingpattern", "missingrole:"}, malformed)
}

func TestParseMapping_IgnoresEmptyEntries(t *testing.T) {
	rules, malformed := ParseMapping("GOLD:virtual_y_premium;;SILVER:virtual_y;")
	assert.Len(t, rules, 2)
	assert.Empty(t, malformed)
}

func TestResolve_UnionOfAllMatchingRules(t *testing.T) {
	rules, _ := ParseMapping("GOLD:virtual_y_premium;GOLD:virtual_y_trial;SILVER:virtual_y")

	candidates := Resolve(rules, "GOLD", true)
	assert.Equal(t, []string{"virtual_y_premium", "virtual_y_trial"}, candidates)
}

func TestResolve_OrderOfRulesDoesNotMatter(t *testing.T) {
	forward, _ := ParseMapping("GOLD:virtual_y_premium;GOLD:virtual_y_trial")
	reverse, _ := ParseMapping("GOLD:virtual_y_trial;GOLD:virtual_y_premium")

	assert.Equal(t, Resolve(forward, "GOLD", false), Resolve(reverse, "GOLD", false))
}

func TestResolve_DuplicateRolesCollapse(t *testing.T) {
	rules := []Rule{
		{Pattern: "GOLD", Role: "virtual_y_premium"},
		{Pattern: "GOLD", Role: "virtual_y_premium"},
	}
	assert.Equal(t, []string{"virtual_y_premium"}, Resolve(rules, "GOLD", false))
}

func TestResolve_ExactMatchOnly(t *testing.T) {
	rules, _ := ParseMapping("GOLD:virtual_y_premium")

	assert.Empty(t, Resolve(rules, "gold", false))
	assert.Empty(t, Resolve(rules, "GOLD PLUS", false))
}

func TestResolve_BaselineFallback(t *testing.T) {
	rules, _ := ParseMapping("GOLD:virtual_y_premium")

	// Active membership with no matching rule gets the baseline role.
	assert.Equal(t, []string{BaselineRole}, Resolve(rules, "BRONZE", true))

	// Without require_active there is no fallback.
	assert.Empty(t, Resolve(rules, "BRONZE", false))

	// An empty membership value never gets the baseline.
	assert.Empty(t, Resolve(rules, "", true))
}

func TestSync_DropsManagedKeepsOthers(t *testing.T) {
	current := []string{"editor", "virtual_y", "virtual_y_premium", "administrator"}

	final := Sync(current, []string{"virtual_y_trial"})
	assert.Equal(t, []string{"editor", "administrator", "virtual_y_trial"}, final)
}

func TestSync_Idempotent(t *testing.T) {
	candidates := []string{"virtual_y", "virtual_y_premium"}
	first := Sync([]string{"editor", "virtual_y_old"}, candidates)
	second := Sync(first, candidates)

	assert.Equal(t, first, second)
}

func TestSync_SweepsAllManagedRolesWhenNoCandidates(t *testing.T) {
	current := []string{"editor", "virtual_y", "virtual_y_premium"}

	final := Sync(current, nil)
	assert.Equal(t, []string{"editor"}, final)
}

func TestIsManaged(t *testing.T) {
	assert.True(t, IsManaged("virtual_y"))
	assert.True(t, IsManaged("virtual_y_premium"))
	assert.True(t, IsManaged("premium_virtual_y_plus"))
	assert.False(t, IsManaged("editor"))
	assert.False(t, IsManaged("administrator"))
}

func TestMembershipValueOf(t *testing.T) {
	member := map[string]interface{}{
		"PackageName": "GOLD",
		"Level":       3,
	}

	v, err := membershipValueOf(member, "PackageName")
	require.NoError(t, err)
	assert.Equal(t, "GOLD", v)

	// Non-string values are stringified.
	v, err = membershipValueOf(member, "Level")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	// A missing field is an empty membership, not an error.
	v, err = membershipValueOf(member, "absent")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}
