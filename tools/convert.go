package tools

import (
	"sort"
	"strings"
)

// Unique
// 按名字去重，保持原有顺序，并移除空字符串
func (c convertFunctions) Unique(source []string) []string {
	result := make([]string, 0, len(source))
	seen := make(map[string]bool)
	for _, v := range source {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}

// Sorted
// 返回排序后的副本，不修改 source
func (c convertFunctions) Sorted(source []string) []string {
	s := append(make([]string, 0, len(source)), source...)
	sort.Strings(s)
	return s
}

// Join
// 以逗号连接，为空时返回 placeholder
func (c convertFunctions) Join(source []string, placeholder string) string {
	if len(source) == 0 {
		return placeholder
	}
	return strings.Join(source, ", ")
}
