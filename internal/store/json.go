package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"agri-price-backend/internal/model"
)

// GenerateTimeLayout 数据文件中generate_time的格式
const GenerateTimeLayout = "2006-01-02 15:04:05"

// DefaultJSONFileName 默认数据文件名
const DefaultJSONFileName = "agri_price_mock_data.json"

// WriteJSON 保存数据文件，先写临时文件再重命名
func WriteJSON(path string, records []model.DayRecord, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	ds := model.NewDataset(records, now.Format(GenerateTimeLayout))
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename dataset: %w", err)
	}
	return nil
}

// ReadJSON 读取数据文件
func ReadJSON(path string) (*model.Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds model.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &ds, nil
}
