// Package imgproc 实现位图文件的优化变换：等比缩小、近灰度检测、JPEG 重编码.
// 变换是纯文件级操作，幂等标记和批量调度由 service 层负责.
package imgproc

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // 注册 webp 解码

	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// Options 优化参数，均由进程配置注入.
type Options struct {
	Quality            int     // JPEG 重编码质量
	MaxDimension       int     // 最长边像素上限
	MinSizeBytes       int64   // 低于该大小且已是高效格式时跳过
	GrayscaleThreshold float64 // 各通道均值差阈值
	DetectGrayscale    bool
	PreserveMetadata   bool // 保留 EXIF 等元数据，位图不做任何重写
	Force              bool // 忽略 MinSizeBytes 判定
}

// Action 优化的结果动作.
type Action int

const (
	// ActionOptimized 文件被重写为更小的版本.
	ActionOptimized Action = iota
	// ActionSkipped 明确的跳过结果（太小、已高效或优化无收益），不算失败.
	ActionSkipped
)

// Result 单文件优化结果.
type Result struct {
	Action    Action
	OldSize   int64
	NewSize   int64
	Grayscale bool
}

// bitmapExts 支持优化的位图扩展名.
var bitmapExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// efficientExts 已经是空间高效压缩格式的扩展名.
var efficientExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// IsBitmap 判断扩展名是否为可优化的位图格式.
func IsBitmap(path string) bool {
	return bitmapExts[strings.ToLower(filepath.Ext(path))]
}

// Optimize 原地优化单个位图文件.小于阈值且已是高效格式的文件直接跳过；
// 重编码结果不比原文件小则保留原文件，同样算跳过.输出统一为 JPEG，
// 重新编码本身即丢弃 EXIF 等元数据.
func Optimize(path string, opts Options) (Result, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	res := Result{Action: ActionSkipped, OldSize: fi.Size(), NewSize: fi.Size()}

	// 任何重写都会经过像素级解码再编码，EXIF 等元数据必然丢失.
	// 要求保留元数据时唯一正确的做法是不碰文件
	if opts.PreserveMetadata {
		return res, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !opts.Force && fi.Size() < opts.MinSizeBytes && efficientExts[ext] {
		return res, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if opts.DetectGrayscale && isNearGrayscale(img, opts.GrayscaleThreshold) {
		img = imaging.Grayscale(img)
		res.Grayscale = true
	}

	img = fitWithin(img, opts.MaxDimension)

	// 先编码到临时文件，比原文件小才替换
	tmp := path + ".opt.tmp"
	if err := encodeJPEG(tmp, img, opts.Quality); err != nil {
		_ = os.Remove(tmp)

		return Result{}, fmt.Errorf("encode %s: %w", path, err)
	}

	tmpInfo, err := os.Stat(tmp)
	if err != nil {
		_ = os.Remove(tmp)

		return Result{}, fmt.Errorf("stat encoded output: %w", err)
	}

	if tmpInfo.Size() >= fi.Size() {
		_ = os.Remove(tmp)
		nlog.Logger().Debug().Str("path", path).Msg("optimized output not smaller, keeping original")

		return res, nil
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)

		return Result{}, fmt.Errorf("replace %s: %w", path, err)
	}

	res.Action = ActionOptimized
	res.NewSize = tmpInfo.Size()

	return res, nil
}

// encodeJPEG 把图像以 JPEG 写入 path.临时文件扩展名不定，格式需显式指定.
func encodeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// fitWithin 等比缩小到两边都不超过 maxDim，从不放大.
func fitWithin(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}

	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}

	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// sampleStep 灰度检测的像素采样步长，避免大图全量扫描.
const sampleStep = 8

// isNearGrayscale 比较 RGB 各通道均值的最大差，低于阈值视为近灰度内容.
func isNearGrayscale(img image.Image, threshold float64) bool {
	if threshold <= 0 {
		return false
	}

	b := img.Bounds()

	var sumR, sumG, sumB float64

	var n float64

	for y := b.Min.Y; y < b.Max.Y; y += sampleStep {
		for x := b.Min.X; x < b.Max.X; x += sampleStep {
			r, g, bl, _ := img.At(x, y).RGBA()
			sumR += float64(r >> 8)
			sumG += float64(g >> 8)
			sumB += float64(bl >> 8)
			n++
		}
	}

	if n == 0 {
		return false
	}

	meanR, meanG, meanB := sumR/n, sumG/n, sumB/n
	maxDelta := max(absDiff(meanR, meanG), absDiff(meanG, meanB), absDiff(meanR, meanB))

	return maxDelta <= threshold
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}

	return b - a
}
