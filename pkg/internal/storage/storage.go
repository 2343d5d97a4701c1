// Package storage 聚合持久化资源（元数据数据库），并负责模型迁移.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx, cfg)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取数据库客户端
//
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"sync"

	"github.com/yeisme/receiptvault/pkg/configs"
	"github.com/yeisme/receiptvault/pkg/internal/model"
	dbc "github.com/yeisme/receiptvault/pkg/internal/storage/db"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB *dbc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// New 按注入配置构造存储管理器并完成模型迁移.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	dbi, err := dbc.New(ctx, &cfg.DB)
	if err != nil {
		return nil, err
	}

	m := &Manager{DB: dbi}

	if err := m.DB.AutoMigrate(
		&model.Receipt{},
		&model.ReceiptFile{},
		&model.Tag{},
		&model.Setting{},
	); err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		if err := m.DB.RegisterGORMMetrics(cfg.DB.Database); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Init 初始化进程级存储.重复调用只返回已初始化实例.
func Init(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		var m *Manager

		m, err = New(ctx, cfg)
		if err != nil {
			return
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}
