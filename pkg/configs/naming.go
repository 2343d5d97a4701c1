package configs

import (
	"github.com/spf13/viper"
)

// DefaultNamingPattern 默认文件命名模板.令牌词表见 pkg/internal/naming.
const DefaultNamingPattern = "{date}_{owner}_{vendor}_{amount}"

type (
	// NamingConfig 文件命名模板配置.运行时修改通过 settings 表持久化，
	// 这里只提供启动默认值.
	NamingConfig struct {
		Pattern string `mapstructure:"pattern"`
	}
)

// setDefaults 设置命名配置的默认值.
func (n *NamingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("naming.pattern", DefaultNamingPattern)
}
