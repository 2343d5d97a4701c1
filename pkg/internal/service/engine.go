// Package service 实现文件存储与命名引擎的业务逻辑：模板配置、上传存储、
// 重命名/迁移、图片优化和监听目录导入.
package service

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yeisme/receiptvault/pkg/configs"
	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/naming"
	"github.com/yeisme/receiptvault/pkg/internal/storage"
)

// Engine 文件存储与命名引擎.持有注入的存储管理器、路径解析器和模板缓存，
// 不读取进程级全局状态.
type Engine struct {
	mgr      *storage.Manager
	cfg      *configs.AppConfig
	resolver *naming.Resolver

	// 当前生效的命名模板缓存，读穿 settings 表
	patternMu sync.RWMutex
	pattern   string
}

// NewEngine 创建引擎实例.
func NewEngine(mgr *storage.Manager, cfg *configs.AppConfig) *Engine {
	return &Engine{
		mgr:      mgr,
		cfg:      cfg,
		resolver: naming.NewResolver(cfg.Storage.AbsRoot()),
	}
}

// Resolver 返回注入的路径解析器.
func (e *Engine) Resolver() *naming.Resolver {
	return e.resolver
}

// gormDB 缩短 Preload 回调签名.
type gormDB = gorm.DB

// db 返回绑定 ctx 的 gorm 句柄.
func (e *Engine) db(ctx context.Context) *gorm.DB {
	return e.mgr.GetDBClient().GetDB().WithContext(ctx)
}

// fieldsOf 从票据构造模板渲染字段.
func fieldsOf(r *model.Receipt) naming.Fields {
	return naming.Fields{
		Date:     r.Date,
		Owner:    r.Owner,
		Vendor:   r.Vendor,
		Amount:   r.Amount,
		Category: r.Category,
		Tags:     r.TagNames(),
	}
}
