// Package model 定义票据与文件的数据库模型.
package model

import (
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

// Receipt 票据元数据.Owner、Date、Vendor、Amount、Category 和标签集合
// 都会参与文件命名，任一变更都需要重新解析该票据下所有文件的存储路径.
type Receipt struct {
	ID    uint   `gorm:"primaryKey"    json:"id"`
	Owner string `gorm:"size:255;index" json:"owner"`
	// Date 存为 YYYY-MM-DD 字符串，解析失败时路径解析回退到当前日期
	Date     string  `gorm:"size:32;index"  json:"date"`
	Vendor   string  `gorm:"size:255;index" json:"vendor"`
	Amount   float64 `gorm:"index"          json:"amount"`
	Category string  `gorm:"size:128;index" json:"category"`
	// Tags 多对多关联；TagsJSON 为按序标签名的冗余缓存，便于模糊搜索
	Tags     []Tag  `gorm:"many2many:receipt_tags" json:"tags"`
	TagsJSON string `gorm:"type:text"              json:"tags_json"`

	Files []ReceiptFile `gorm:"foreignKey:ReceiptID" json:"files"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TagNames 按关联顺序返回标签名.
func (r *Receipt) TagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Name)
	}

	return names
}

// RefreshTagsJSON 重建 TagsJSON 缓存列.
func (r *Receipt) RefreshTagsJSON() {
	data, err := sonic.MarshalString(r.TagNames())
	if err != nil {
		return
	}

	r.TagsJSON = data
}

// ReceiptFile 票据关联的单个物理文件.
type ReceiptFile struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ReceiptID uint `gorm:"index"      json:"receipt_id"`
	// Filename 当前磁盘文件名（basename），由命名引擎维护
	Filename string `gorm:"size:512;index" json:"filename"`
	// OriginalFilename 用户上传时的文件名，保留用于展示和下载
	OriginalFilename string `gorm:"size:512" json:"original_filename"`
	// FileOrder 在同一票据内的零基序号，参与 [id-index] 冲突后缀
	FileOrder   int        `gorm:"index" json:"file_order"`
	Size        int64      `json:"size"`
	Hash        string     `gorm:"size:32;index" json:"hash"`
	IsOptimized bool       `gorm:"index"         json:"is_optimized"`
	OptimizedAt *time.Time `json:"optimized_at,omitempty"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag 标签，名称唯一.
type Tag struct {
	ID   uint   `gorm:"primaryKey"            json:"id"`
	Name string `gorm:"size:128;uniqueIndex"  json:"name"`

	CreatedAt time.Time
}
