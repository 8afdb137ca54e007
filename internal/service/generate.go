package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"agri-price-backend/internal/export"
	"agri-price-backend/internal/model"
	"agri-price-backend/internal/stats"
	"agri-price-backend/internal/store"
	"agri-price-backend/internal/synth"
)

// ErrGenerateBusy 已有生成任务在执行
var ErrGenerateBusy = errors.New("generation already in progress")

// Persister 保存生成结果
type Persister interface {
	Persist(ctx context.Context, records []model.DayRecord, now time.Time) error
}

// NopPersister 不落盘
type NopPersister struct{}

func (NopPersister) Persist(context.Context, []model.DayRecord, time.Time) error { return nil }

// FilePersister 写JSON数据文件，可选写SQLite和xlsx
type FilePersister struct {
	JSONPath   string
	SQLitePath string
	XLSXPath   string
	Catalog    []model.ProductSpec
}

func (p FilePersister) Persist(ctx context.Context, records []model.DayRecord, now time.Time) error {
	if p.JSONPath != "" {
		if err := store.WriteJSON(p.JSONPath, records, now); err != nil {
			return fmt.Errorf("保存JSON失败: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.SQLitePath != "" {
		if err := store.Rebuild(p.SQLitePath, records); err != nil {
			return fmt.Errorf("保存SQLite失败: %w", err)
		}
	}
	if p.XLSXPath != "" {
		if err := export.WriteFile(p.XLSXPath, records, p.Catalog); err != nil {
			return fmt.Errorf("保存Excel失败: %w", err)
		}
	}
	return nil
}

// GenerateRequest 生成参数，零值使用默认。天数上限由合成器配置决定
type GenerateRequest struct {
	EndDate   string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Days      int     `json:"days" default:"365" validate:"min=1"`
	BaseIndex float64 `json:"base_index" default:"120" validate:"gt=0"`
}

// GenerateResult 生成结果摘要
type GenerateResult struct {
	Total    int           `json:"total"`
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Duration string        `json:"duration"`
	Summary  stats.Summary `json:"summary"`
}

// Generate 生成新的数据集，落盘后替换当前数据
func (s *PriceService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if !s.genMu.TryLock() {
		return nil, ErrGenerateBusy
	}
	defer s.genMu.Unlock()

	start := s.now()
	end := start
	if req.EndDate != "" {
		d, err := synth.ParseDate(req.EndDate)
		if err != nil {
			return nil, err
		}
		end = d
	}
	days := req.Days
	if days == 0 {
		days = synth.DefaultDayCount
	}
	base := req.BaseIndex
	if base == 0 {
		base = synth.DefaultBaseIndex
	}

	records, err := s.synth.Synthesize(end, days, base)
	if err != nil {
		s.observer.RecordFailure("synthesize")
		return nil, err
	}
	if err := s.persist.Persist(ctx, records, s.now()); err != nil {
		s.observer.RecordFailure("persist")
		return nil, err
	}
	s.Replace(ctx, records)

	sum := stats.Summarize(records, s.catalog)
	elapsed := s.now().Sub(start)
	s.log.Info().
		Int("total", sum.Total).
		Str("start", sum.Start).
		Str("end", sum.End).
		Float64("growth_percent", sum.GrowthPercent).
		Dur("duration", elapsed).
		Msg("数据生成完成")

	return &GenerateResult{
		Total:    sum.Total,
		Start:    sum.Start,
		End:      sum.End,
		Duration: elapsed.Round(time.Millisecond).String(),
		Summary:  sum,
	}, nil
}

// Source 启动数据来源
type Source struct {
	Kind       string // json, sqlite, generate
	JSONPath   string
	SQLitePath string
	Request    GenerateRequest
}

// Load 启动时加载数据；文件不存在时改为生成
func (s *PriceService) Load(ctx context.Context, src Source) error {
	var (
		records []model.DayRecord
		err     error
	)
	switch src.Kind {
	case "sqlite":
		records, err = store.LoadSQLite(src.SQLitePath)
	case "generate":
		err = os.ErrNotExist
	default:
		var ds *model.Dataset
		ds, err = store.ReadJSON(src.JSONPath)
		if ds != nil {
			records = ds.Data
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info().Str("source", src.Kind).Msg("数据文件不存在，重新生成")
		_, err = s.Generate(ctx, src.Request)
		return err
	}
	if err != nil {
		s.observer.RecordFailure("load")
		return fmt.Errorf("加载数据失败: %w", err)
	}
	s.Replace(ctx, records)
	s.log.Info().Str("source", src.Kind).Int("records", len(records)).Msg("数据加载完成")
	return nil
}
