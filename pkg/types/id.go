package types

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern is the identifier grammar shared by appliance, container, and
// volume ids: letters, digits, hyphen.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ValidID reports whether id matches the restricted identifier alphabet.
func ValidID(id string) bool {
	return id != "" && idPattern.MatchString(id)
}

// shortRefPattern matches an "@<id>" short reference inside a cmd/args/env
// string.
var shortRefPattern = regexp.MustCompile(`@([a-zA-Z0-9-]+)`)

// ShortRefs returns the set of container ids referenced via "@<id>" in s.
func ShortRefs(s string) []string {
	matches := shortRefPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}

// ResolveShortRefs rewrites every "@<id>" occurrence in s into its resolved
// DNS name "<id>-<applianceID>.<dnsSuffix>".
func ResolveShortRefs(s, applianceID, dnsSuffix string) string {
	return shortRefPattern.ReplaceAllStringFunc(s, func(m string) string {
		id := strings.TrimPrefix(m, "@")
		return fmt.Sprintf("%s-%s.%s", id, applianceID, dnsSuffix)
	})
}
