package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/yeisme/receiptvault/pkg/configs"
	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/storage"
)

func testConfig(t *testing.T) *configs.AppConfig {
	t.Helper()

	base := t.TempDir()

	return &configs.AppConfig{
		DB: configs.DBConfig{
			Type:         configs.SQLite,
			Database:     filepath.Join(t.TempDir(), "meta"),
			MaxIdleConns: 2,
		},
		Storage: configs.StorageConfig{
			Root:             filepath.Join(base, "receipts"),
			WatchDir:         filepath.Join(base, "inbox"),
			StagingDir:       filepath.Join(base, "staging"),
			ProcessedDirName: configs.DefaultProcessedDirName,
		},
		Naming: configs.NamingConfig{Pattern: configs.DefaultNamingPattern},
		Image: configs.ImageConfig{
			Quality:            configs.DefaultImageQuality,
			MaxDimension:       configs.DefaultImageMaxDimension,
			MinSizeBytes:       configs.DefaultImageMinSizeBytes,
			GrayscaleThreshold: configs.DefaultImageGrayscaleThreshold,
			DetectGrayscale:    configs.DefaultImageDetectGrayscale,
			StripMetadata:      configs.DefaultImageStripMetadata,
			BatchSize:          configs.DefaultImageBatchSize,
			Workers:            configs.DefaultImageWorkers,
		},
		Watch: configs.WatchConfig{Enabled: true, IntervalSeconds: configs.DefaultWatchIntervalSeconds},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := testConfig(t)

	mgr, err := storage.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	return NewEngine(mgr, cfg)
}

func makeReceipt(t *testing.T, e *Engine, owner, date, vendor string, amount float64) *model.Receipt {
	t.Helper()

	r := &model.Receipt{Owner: owner, Date: date, Vendor: vendor, Amount: amount}
	if err := e.CreateReceipt(context.Background(), r); err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}

	return r
}

func storeText(t *testing.T, e *Engine, r *model.Receipt, name, content string) *model.ReceiptFile {
	t.Helper()

	f, err := e.StoreFile(context.Background(), r, strings.NewReader(content), name)
	if err != nil {
		t.Fatalf("StoreFile(%s): %v", name, err)
	}

	return f
}

// encodeNoiseJPEG 生成指定边长的噪声 JPEG，噪声内容压缩率低，
// 尺寸随边长快速增长，便于构造超阈值的测试图片.
func encodeNoiseJPEG(t *testing.T, dim, quality int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, dim, dim))

	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	return buf.Bytes()
}
