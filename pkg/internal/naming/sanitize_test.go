package naming

import (
	"strings"
	"testing"
)

// TestSanitize 测试名称净化的各类输入.
func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "unknown"},
		{"whitespace only", "   \t ", "unknown"},
		{"uppercase", "TEST", "test"},
		{"spaces to hyphen", "John Doe", "john-doe"},
		{"whitespace run", "a   \t b", "a-b"},
		{"strip special chars", "Café & Restaurant!", "caf-restaurant"},
		{"collapse hyphens", "a---b", "a-b"},
		{"trim hyphens", "-test-file-", "test-file"},
		{"keep underscore", "a_b", "a_b"},
		{"only special chars", "!!!", "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.input)
			if got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestSanitizeTruncates 测试超长输入截断到 50 个字符.
func TestSanitizeTruncates(t *testing.T) {
	got := Sanitize(strings.Repeat("a", 100))
	if len(got) != 50 {
		t.Errorf("expected 50 chars, got %d", len(got))
	}
}

// TestSanitizeIdempotent 净化结果再净化应保持不变.
func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"John Doe", "Test Clinic", "-a--b-", "X Y Z"}
	for _, in := range inputs {
		once := Sanitize(in)

		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
