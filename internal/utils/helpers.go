package utils

import (
	"sort"
	"strings"
)

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isFailure(kind string) bool {
	return strings.HasSuffix(kind, "_failed") || strings.HasSuffix(kind, "_error")
}
