package model

import "time"

// SettingNamingPattern 当前生效的命名模板对应的配置键.
const SettingNamingPattern = "naming.pattern"

// Setting 进程级键值配置，如当前生效的命名模板.
type Setting struct {
	ID    uint   `gorm:"primaryKey"           json:"id"`
	Key   string `gorm:"size:128;uniqueIndex" json:"key"`
	Value string `gorm:"type:text"            json:"value"`

	UpdatedAt time.Time
}
