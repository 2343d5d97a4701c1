package imgproc

import (
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// newTestImage 生成彩色渐变测试图，通道均值拉开，用于灰度判定类断言.
func newTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			// 通道均值拉开，避免被误判为近灰度
			img.Set(x, y, color.NRGBA{
				R: uint8(180 + (x*7)%60),
				G: uint8(80 + (y*13)%50),
				B: uint8(20 + (x+y)%40),
				A: 255,
			})
		}
	}

	return img
}

// newNoiseImage 生成随机噪声图.噪声不可压缩，PNG 体积大，缩小后重编码
// JPEG 必然显著更小.
func newNoiseImage(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	return img
}

// newGrayTestImage 生成近灰度测试图.
func newGrayTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := uint8((x + y) % 256)
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	return img
}

func savePNG(t *testing.T, img image.Image, path string) {
	t.Helper()

	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save test image: %v", err)
	}
}

// TestIsBitmap 测试位图扩展名判定.
func TestIsBitmap(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"a.jpg", true},
		{"a.JPEG", true},
		{"a.png", true},
		{"a.webp", true},
		{"a.pdf", false},
		{"a.txt", false},
		{"noext", false},
	}

	for _, tc := range cases {
		if got := IsBitmap(tc.path); got != tc.want {
			t.Errorf("IsBitmap(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

// TestOptimizeResizesAndShrinks 大 PNG 应被缩小并重编码为更小的文件.
// 用噪声图保证重编码确实有收益，规整图案的 PNG 可能比缩小后的 JPEG 还小.
func TestOptimizeResizesAndShrinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	savePNG(t, newNoiseImage(800, 600), path)

	before, _ := os.Stat(path)

	res, err := Optimize(path, Options{
		Quality:      75,
		MaxDimension: 400,
		MinSizeBytes: 0,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Action != ActionOptimized {
		t.Fatalf("expected ActionOptimized, got %v", res.Action)
	}

	after, _ := os.Stat(path)
	if after.Size() >= before.Size() {
		t.Errorf("expected smaller file, before=%d after=%d", before.Size(), after.Size())
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("reopen optimized file: %v", err)
	}

	b := img.Bounds()
	if b.Dx() > 400 || b.Dy() > 400 {
		t.Errorf("expected both dimensions <= 400, got %dx%d", b.Dx(), b.Dy())
	}
}

// TestOptimizeSkipsSmallEfficient 小于阈值且已是 JPEG 的文件直接跳过.
func TestOptimizeSkipsSmallEfficient(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.jpg")

	if err := imaging.Save(newTestImage(50, 50), path, imaging.JPEGQuality(80)); err != nil {
		t.Fatal(err)
	}

	before, _ := os.ReadFile(path)

	res, err := Optimize(path, Options{
		Quality:      80,
		MaxDimension: 2000,
		MinSizeBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Action != ActionSkipped {
		t.Errorf("expected ActionSkipped, got %v", res.Action)
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("skipped file should be untouched")
	}
}

// TestOptimizePreserveMetadataSkips 保留元数据时位图不做任何重写，
// 即便尺寸超限也不缩小.重编码必丢元数据，保留即不碰文件.
func TestOptimizePreserveMetadataSkips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.png")
	savePNG(t, newNoiseImage(800, 600), path)

	before, _ := os.ReadFile(path)

	res, err := Optimize(path, Options{
		Quality:          75,
		MaxDimension:     400,
		MinSizeBytes:     0,
		PreserveMetadata: true,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Action != ActionSkipped {
		t.Fatalf("expected ActionSkipped, got %v", res.Action)
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("file rewritten despite metadata preservation")
	}
}

// TestOptimizeKeepsOriginalWhenNotSmaller 重编码无收益时保留原文件.
func TestOptimizeKeepsOriginalWhenNotSmaller(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.jpg")

	// 已经极小的低质量 JPEG，再编码很难更小
	if err := imaging.Save(newGrayTestImage(16, 16), path, imaging.JPEGQuality(10)); err != nil {
		t.Fatal(err)
	}

	res, err := Optimize(path, Options{
		Quality:      95,
		MaxDimension: 2000,
		MinSizeBytes: 0,
		Force:        true,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Action == ActionOptimized && res.NewSize >= res.OldSize {
		t.Errorf("claimed optimized but not smaller: old=%d new=%d", res.OldSize, res.NewSize)
	}
}

// TestOptimizeGrayscaleDetection 近灰度内容触发灰度转换.
func TestOptimizeGrayscaleDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gray.png")
	savePNG(t, newGrayTestImage(300, 300), path)

	res, err := Optimize(path, Options{
		Quality:            75,
		MaxDimension:       2000,
		DetectGrayscale:    true,
		GrayscaleThreshold: 12.0,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if !res.Grayscale {
		t.Error("expected grayscale detection on gray image")
	}
}

// TestOptimizeColorNotGrayscale 彩色内容不应触发灰度转换.
func TestOptimizeColorNotGrayscale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "color.png")
	savePNG(t, newTestImage(300, 300), path)

	res, err := Optimize(path, Options{
		Quality:            75,
		MaxDimension:       2000,
		DetectGrayscale:    true,
		GrayscaleThreshold: 12.0,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Grayscale {
		t.Error("unexpected grayscale conversion on color image")
	}
}

// TestOptimizeMissingFile 源文件缺失返回错误，由上层决定语义.
func TestOptimizeMissingFile(t *testing.T) {
	_, err := Optimize(filepath.Join(t.TempDir(), "missing.jpg"), Options{Quality: 80})
	if err == nil {
		t.Error("expected error for missing file")
	}
}
