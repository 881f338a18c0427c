// Package recommendation selects add-on SKUs via declarative upsell
// rules and assembles the three-tier offer list for a sizing result.
// All functions are pure; rules load from embedded configuration.
package recommendation

import (
	_ "embed"
	"fmt"
	"sort"

	"origination_backend/internal/sizing"

	"gopkg.in/yaml.v3"
)

//go:embed configs/upsell_rules.yaml
var rulesYAML []byte

// Rule pairs a conjunctive set of predicates with SKUs to suggest.
type Rule struct {
	When    map[string]interface{} `yaml:"when"`
	Suggest []string               `yaml:"suggest"`
}

var rules []Rule

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

func init() {
	var rf rulesFile
	if err := yaml.Unmarshal(rulesYAML, &rf); err != nil {
		panic(fmt.Sprintf("recommendation: invalid upsell rules: %v", err))
	}
	rules = rf.Rules
}

// Suggest evaluates all rules against the band code and context and
// returns the union of matching suggestions as a deduplicated,
// alphabetically sorted list. Sorting makes the output deterministic.
func Suggest(bandCode string, context map[string]interface{}) []string {
	suggestions := make(map[string]struct{})

	for _, rule := range rules {
		if ruleMatches(rule, bandCode, context) {
			for _, sku := range rule.Suggest {
				suggestions[sku] = struct{}{}
			}
		}
	}

	return sortedKeys(suggestions)
}

// UpsellUnion merges the rule-engine suggestions with the static
// tier-level triggers into one sorted, deduplicated list. All offers in
// a bundle share this union.
func UpsellUnion(bandCode, tierCode string, context map[string]interface{}) []string {
	union := make(map[string]struct{})
	for _, sku := range Suggest(bandCode, context) {
		union[sku] = struct{}{}
	}
	for _, sku := range sizing.UpsellTriggers(tierCode) {
		union[sku] = struct{}{}
	}
	return sortedKeys(union)
}

// ruleMatches reports whether every predicate in the rule's when clause
// holds. band_in matches the band code against a list; list-valued
// predicates match by membership, scalar-valued ones by equality.
func ruleMatches(rule Rule, bandCode string, context map[string]interface{}) bool {
	for key, expected := range rule.When {
		if key == "band_in" {
			if !memberOf(expected, bandCode) {
				return false
			}
			continue
		}

		actual, ok := context[key]
		if !ok || actual == nil {
			return false
		}
		if values, isList := expected.([]interface{}); isList {
			if !containsValue(values, actual) {
				return false
			}
		} else if !scalarEqual(expected, actual) {
			return false
		}
	}
	return true
}

func memberOf(expected interface{}, value string) bool {
	values, ok := expected.([]interface{})
	if !ok {
		values = []interface{}{expected}
	}
	return containsValue(values, value)
}

func containsValue(values []interface{}, actual interface{}) bool {
	for _, v := range values {
		if scalarEqual(v, actual) {
			return true
		}
	}
	return false
}

// scalarEqual compares through string rendering so YAML-decoded values
// (which may arrive as int where the context carries float, and vice
// versa) still compare as intended.
func scalarEqual(expected, actual interface{}) bool {
	if expected == actual {
		return true
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for sku := range set {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}
