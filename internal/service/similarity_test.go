package service

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"部分重合", []string{"ai", "python"}, []string{"python", "vue"}, 1.0 / 3.0},
		{"均为空", []string{}, []string{}, 0},
		{"一侧为空", []string{"x"}, []string{}, 0},
		{"nil 输入", nil, nil, 0},
		{"完全相同", []string{"go", "redis"}, []string{"redis", "go"}, 1},
		{"大小写与空白", []string{" Go ", "AI"}, []string{"go", "ai"}, 1},
		{"空白项丢弃", []string{"go", "  ", ""}, []string{"go"}, 1},
		{"重复项去重", []string{"go", "go"}, []string{"go", "rust"}, 0.5},
		{"无交集", []string{"c"}, []string{"java"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%v, %v) = %v，期望 %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := []string{"ai", "python", "ml"}
	b := []string{"python", "vue"}
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("相似度应与参数顺序无关")
	}
}

func TestRoundScore(t *testing.T) {
	if got := roundScore(1.0 / 3.0); got != 0.3333 {
		t.Errorf("期望 0.3333，实际=%v", got)
	}
	if got := roundScore(2.0 / 3.0); got != 0.6667 {
		t.Errorf("期望 0.6667，实际=%v", got)
	}
}
