package naming

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestParseDate 测试防御性日期解析.
func TestParseDate(t *testing.T) {
	fixed := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }

	defer func() { nowFunc = time.Now }()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain date", "2024-01-15", "2024-01-15"},
		{"with time suffix", "2024-01-15T10:30:00", "2024-01-15"},
		{"with space time", "2024-01-15 10:30", "2024-01-15"},
		{"invalid month", "2024-13-01", "2030-06-01"},
		{"garbage", "not-a-date", "2030-06-01"},
		{"empty", "", "2030-06-01"},
		{"trailing garbage", "2024-01-15xyz", "2030-06-01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDate(tc.input).Format("2006-01-02")
			if got != tc.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tc.input, got, tc.want)
			}
		})
	}
}

// TestDirectoryFor 测试规范目录计算.
func TestDirectoryFor(t *testing.T) {
	r := NewResolver("/store")

	got := r.DirectoryFor("John Doe", "2024-01-05")

	want := filepath.Join("/store", "john-doe", "2024", "01", "05")
	if got != want {
		t.Errorf("DirectoryFor = %q, want %q", got, want)
	}

	// 同 owner 同日期共享目录
	again := r.DirectoryFor("john doe", "2024-01-05T08:00:00")
	if again != want {
		t.Errorf("expected shared directory, got %q", again)
	}
}

// TestFilenameFor 测试完整文件名组合（§往返用例）.
func TestFilenameFor(t *testing.T) {
	r := NewResolver("/store")
	fields := Fields{
		Date:     "2024-01-15",
		Owner:    "John Doe",
		Vendor:   "Test Clinic",
		Amount:   100.50,
		Category: "doctor-visit",
	}

	got := r.FilenameFor("{date}_{owner}_{vendor}_{amount}_{category}_{index}", fields, 123, 0, ".pdf")

	want := "2024-01-15_john-doe_test-clinic_100-50_doctor-visit_0[123-0].pdf"
	if got != want {
		t.Errorf("FilenameFor = %q, want %q", got, want)
	}
}

// TestFilenameForSuffixAlways 冲突后缀对任意输入都存在且幂等.
func TestFilenameForSuffixAlways(t *testing.T) {
	r := NewResolver("/store")
	fields := Fields{Date: "2024-02-02", Owner: "o", Vendor: "v", Amount: 1}

	first := r.FilenameFor("{owner}", fields, 7, 2, "jpg")
	if !strings.HasSuffix(first, "[7-2].jpg") {
		t.Errorf("missing collision suffix: %q", first)
	}

	second := r.FilenameFor("{owner}", fields, 7, 2, "jpg")
	if first != second {
		t.Errorf("FilenameFor not idempotent: %q != %q", first, second)
	}
}

// TestFilenameForNoCollision 不同 (receiptID, index) 的文件名互不相同.
func TestFilenameForNoCollision(t *testing.T) {
	r := NewResolver("/store")
	fields := Fields{Date: "2024-02-02", Owner: "same", Vendor: "same", Amount: 5}

	seen := map[string]bool{}

	for id := uint(1); id <= 3; id++ {
		for idx := range 3 {
			name := r.FilenameFor("{owner}_{vendor}", fields, id, idx, ".png")
			if seen[name] {
				t.Errorf("collision for id=%d idx=%d: %q", id, idx, name)
			}

			seen[name] = true
		}
	}
}

// TestEnsureDirectory 测试目录创建幂等.
func TestEnsureDirectory(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root)

	dir := r.DirectoryFor("alice", "2024-03-03")
	if err := r.EnsureDirectory(dir); err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}

	// 再次创建不报错
	if err := r.EnsureDirectory(dir); err != nil {
		t.Fatalf("EnsureDirectory second call: %v", err)
	}

	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

// TestParseCollisionSuffix 测试冲突后缀解析.
func TestParseCollisionSuffix(t *testing.T) {
	cases := []struct {
		filename string
		wantID   uint
		wantIdx  int
		wantOK   bool
	}{
		{"2024-01-15_john[123-0].pdf", 123, 0, true},
		{"weird[7-12].jpeg", 7, 12, true},
		{"no-suffix.pdf", 0, 0, false},
		{"broken[12].pdf", 0, 0, false},
		{"empty[].png", 0, 0, false},
	}

	for _, tc := range cases {
		id, idx, ok := ParseCollisionSuffix(tc.filename)
		if ok != tc.wantOK || id != tc.wantID || idx != tc.wantIdx {
			t.Errorf("ParseCollisionSuffix(%q) = (%d,%d,%v), want (%d,%d,%v)",
				tc.filename, id, idx, ok, tc.wantID, tc.wantIdx, tc.wantOK)
		}
	}
}
