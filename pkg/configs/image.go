package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultImageQuality            = 80   // JPEG 重编码质量 (1-100)
	DefaultImageMaxDimension       = 2000 // 最长边像素上限，超出等比缩小
	DefaultImageMinSizeBytes       = 200 * 1024
	DefaultImageGrayscaleThreshold = 12.0 // 各通道均值差阈值，低于视为近灰度
	DefaultImageDetectGrayscale    = true
	DefaultImageStripMetadata      = true
	DefaultImageBatchSize          = 10 // 批处理分块大小
	DefaultImageWorkers            = 3  // 单分块内的并发上限
)

type (
	// ImageConfig 图片优化配置.
	ImageConfig struct {
		Quality            int     `mapstructure:"quality"             rule:"min=1,max=100"`
		MaxDimension       int     `mapstructure:"max_dimension"       rule:"min=16"`
		MinSizeBytes       int64   `mapstructure:"min_size_bytes"      rule:"min=0"`
		GrayscaleThreshold float64 `mapstructure:"grayscale_threshold"`
		DetectGrayscale    bool    `mapstructure:"detect_grayscale"`
		StripMetadata      bool    `mapstructure:"strip_metadata"`
		BatchSize          int     `mapstructure:"batch_size"          rule:"min=1"`
		Workers            int     `mapstructure:"workers"             rule:"min=1"`
	}
)

// setDefaults 设置图片优化配置的默认值.
func (i *ImageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("image.quality", DefaultImageQuality)
	v.SetDefault("image.max_dimension", DefaultImageMaxDimension)
	v.SetDefault("image.min_size_bytes", DefaultImageMinSizeBytes)
	v.SetDefault("image.grayscale_threshold", DefaultImageGrayscaleThreshold)
	v.SetDefault("image.detect_grayscale", DefaultImageDetectGrayscale)
	v.SetDefault("image.strip_metadata", DefaultImageStripMetadata)
	v.SetDefault("image.batch_size", DefaultImageBatchSize)
	v.SetDefault("image.workers", DefaultImageWorkers)
}
