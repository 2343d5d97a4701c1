package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultWatchEnabled         = true
	DefaultWatchIntervalSeconds = 300 // 扫描间隔，单位秒
)

type (
	// WatchConfig 监听目录扫描配置.
	WatchConfig struct {
		Enabled         bool `mapstructure:"enabled"`
		IntervalSeconds int  `mapstructure:"interval_seconds" rule:"min=5"`
	}
)

// GetInterval 返回扫描间隔作为 time.Duration.
func (w *WatchConfig) GetInterval() time.Duration {
	return time.Duration(w.IntervalSeconds) * time.Second
}

// setDefaults 设置监听配置的默认值.
func (w *WatchConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("watch.enabled", DefaultWatchEnabled)
	v.SetDefault("watch.interval_seconds", DefaultWatchIntervalSeconds)
}
