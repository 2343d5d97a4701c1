package service

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/naming"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// GetPattern 返回当前生效的命名模板.优先内存缓存，其次 settings 表，
// 最后回退到配置默认值.
func (e *Engine) GetPattern(ctx context.Context) string {
	e.patternMu.RLock()
	cached := e.pattern
	e.patternMu.RUnlock()

	if cached != "" {
		return cached
	}

	var setting model.Setting

	err := e.db(ctx).Where("key = ?", model.SettingNamingPattern).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			nlog.Logger().Warn().Err(err).Msg("load naming pattern from settings failed")
		}

		return e.cachePattern(e.cfg.Naming.Pattern)
	}

	if naming.ValidatePattern(setting.Value) != nil {
		// 持久化的值已非法（例如手工改库），回退默认值
		return e.cachePattern(e.cfg.Naming.Pattern)
	}

	return e.cachePattern(setting.Value)
}

// SetPattern 校验并持久化新的命名模板.配置类错误同步拒绝，不做静默纠正.
func (e *Engine) SetPattern(ctx context.Context, pattern string) error {
	if err := naming.ValidatePattern(pattern); err != nil {
		return err
	}

	err := e.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.Setting{Key: model.SettingNamingPattern, Value: pattern}).Error
	if err != nil {
		return err
	}

	e.cachePattern(pattern)
	nlog.Logger().Info().Str("pattern", pattern).Msg("naming pattern updated")

	return nil
}

// cachePattern 更新模板缓存并返回该值.
func (e *Engine) cachePattern(pattern string) string {
	e.patternMu.Lock()
	e.pattern = pattern
	e.patternMu.Unlock()

	return pattern
}
