// 包 importer：把对账表中的地址连同注册表建筑详情写入本地库
package importer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"rnb-admin/internal/metrics"
	"rnb-admin/internal/model"
	"rnb-admin/internal/normalize"
	"rnb-admin/internal/rnb"
	"rnb-admin/internal/store"
)

// Source：对账行来源
type Source interface {
	ReconciledRows(ctx context.Context, limit int) ([]model.RawRecord, error)
}

// Registry：建筑详情来源
type Registry interface {
	GetBuilding(ctx context.Context, id string) (*rnb.Building, error)
}

// Sink：落库
type Sink interface {
	RegisterAdresse(ctx context.Context, rec store.AdresseRecord) (int64, int, error)
}

// Report：一次导入的统计
type Report struct {
	Rows      int `json:"rows"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Buildings int `json:"buildings"`
	Missing   int `json:"missing_buildings"`
}

// Importer：Workers 为单行内并行拉取建筑详情的协程数
type Importer struct {
	Source   Source
	Registry Registry
	Sink     Sink
	Limit    int
	Workers  int
	Logger   *slog.Logger
}

// 文档注释：执行一次导入
// 背景：逐行解析 cerema_cstb_rnb_ids，按标识拉取建筑详情后整行落库。
// 约束：单个建筑拉取失败只跳过该建筑；缺少必需字段的行计为 skipped；其余写库错误计为 failed 并继续下一行。
// 返回：仅在读取对账表失败或 ctx 取消时返回错误。
func (im *Importer) Run(ctx context.Context) (Report, error) {
	l := im.Logger
	if l == nil {
		l = slog.Default()
	}
	rows, err := im.Source.ReconciledRows(ctx, im.Limit)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Rows: len(rows)}
	l.Info("import_start", "rows", len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		code := row.String(normalize.FieldID)
		var ids []string
		if v, ok := row[normalize.FieldReconciledRNBIDs]; ok {
			ids = normalize.ParseIDListValue(v)
		}
		buildings := im.fetchAll(ctx, code, ids, l)
		rep.Missing += len(ids) - len(buildings)

		_, n, err := im.Sink.RegisterAdresse(ctx, store.AdresseRecord{Row: row, RNBIDs: ids, Buildings: buildings})
		switch {
		case errors.Is(err, store.ErrMissingFields):
			rep.Skipped++
			metrics.ImportRowsTotal.WithLabelValues("skipped").Inc()
			l.Warn("import_row_skipped", "code_bat_ter", code, "err", err)
		case err != nil:
			rep.Failed++
			metrics.ImportRowsTotal.WithLabelValues("failed").Inc()
			l.Error("import_row_error", "code_bat_ter", code, "err", err)
		default:
			rep.Imported++
			rep.Buildings += n
			metrics.ImportRowsTotal.WithLabelValues("imported").Inc()
			l.Debug("import_row_ok", "code_bat_ter", code, "buildings", n)
		}
	}
	l.Info("import_done", "imported", rep.Imported, "skipped", rep.Skipped, "failed", rep.Failed, "buildings", rep.Buildings)
	return rep, nil
}

// fetchAll：并行拉取，结果保持标识顺序，失败的标识被丢弃
func (im *Importer) fetchAll(ctx context.Context, code string, ids []string, l *slog.Logger) []*rnb.Building {
	if len(ids) == 0 {
		return nil
	}
	workers := im.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(ids) {
		workers = len(ids)
	}
	out := make([]*rnb.Building, len(ids))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				b, err := im.Registry.GetBuilding(ctx, ids[i])
				if err != nil {
					l.Warn("import_building_error", "code_bat_ter", code, "rnb_id", ids[i], "err", err)
					continue
				}
				out[i] = b
			}
		}()
	}
	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res := make([]*rnb.Building, 0, len(ids))
	for _, b := range out {
		if b != nil {
			res = append(res, b)
		}
	}
	return res
}
