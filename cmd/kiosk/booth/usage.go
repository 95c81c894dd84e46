// Package booth derives the initial remaining-use count of a booth purchase
// from its display name.
package booth

import (
	"regexp"
	"strconv"
	"strings"
)

// Booth names embed their use count as "3회" / "[3회]" (times) or
// "1인" / "[1인]" (people). The first numeric group that matches wins.
var usagePattern = regexp.MustCompile(`(\d+)회|\[(\d+)회\]|(\d+)인|\[(\d+)인\]`)

// InitialUses returns the number of uses a booth purchase starts with,
// parsed from its display name. Names without a recognizable count default
// to 1; this is policy, not an error.
func InitialUses(name string) int {
	if m := usagePattern.FindStringSubmatch(name); m != nil {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if n, err := strconv.Atoi(g); err == nil {
				return n
			}
		}
	}

	// Branded passes without an explicit count start at a single use
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "SUPER") || strings.Contains(upper, "SUPERPASS") {
		return 1
	}

	return 1
}
