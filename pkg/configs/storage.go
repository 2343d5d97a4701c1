package configs

import (
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	DefaultStorageRoot      = "data/receipts"  // 文件存储根目录
	DefaultWatchDir         = "data/inbox"     // 监听目录（外部投递）
	DefaultStagingDir       = "data/staging"   // 上传暂存目录
	DefaultProcessedDirName = "processed"      // 监听目录下已处理文件的保留子目录
)

type (
	// StorageConfig 文件存储目录配置.所有路径均由进程配置注入，核心代码不写死路径.
	StorageConfig struct {
		Root             string `mapstructure:"root"               rule:"required"`
		WatchDir         string `mapstructure:"watch_dir"          rule:"required"`
		StagingDir       string `mapstructure:"staging_dir"`
		ProcessedDirName string `mapstructure:"processed_dir_name"`
	}
)

// AbsRoot 返回存储根目录的绝对路径.
func (s *StorageConfig) AbsRoot() string {
	abs, err := filepath.Abs(s.Root)
	if err != nil {
		return s.Root
	}

	return abs
}

// ProcessedDir 返回监听目录下的已处理子目录路径.
func (s *StorageConfig) ProcessedDir() string {
	return filepath.Join(s.WatchDir, s.ProcessedDirName)
}

// setDefaults 设置存储配置的默认值.
func (s *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.root", DefaultStorageRoot)
	v.SetDefault("storage.watch_dir", DefaultWatchDir)
	v.SetDefault("storage.staging_dir", DefaultStagingDir)
	v.SetDefault("storage.processed_dir_name", DefaultProcessedDirName)
}
