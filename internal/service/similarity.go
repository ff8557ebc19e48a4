package service

import (
	"math"
	"strings"
)

// Similarity 计算两个标签集合的 Jaccard 相似度，取值 [0,1]。
// 比较前去除首尾空白并转小写，空串丢弃；并集为空时返回 0。
func Similarity(a, b []string) float64 {
	sa := normalizeSet(a)
	sb := normalizeSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 0
	}

	inter := 0
	for k := range sa {
		if _, ok := sb[k]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func normalizeSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		s := strings.ToLower(strings.TrimSpace(it))
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// roundScore 保留 4 位小数
func roundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}
