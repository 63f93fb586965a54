// 包 store: 提供与 PostgreSQL 的数据访问层，包含对账表读取与地址/建筑落库
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"rnb-admin/internal/logger"
	"rnb-admin/internal/model"

	_ "github.com/lib/pq"
)

const (
	// ReconciliationTable：对账结果表（只读）
	ReconciliationTable = "data_bat.reconciliation_cstb_cerema"
	// DefaultRowLimit：单批读取上限
	DefaultRowLimit = 10
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// ReconciledRows: 读取对账表前 limit 行，列名原样作为键
func (s *Store) ReconciledRows(ctx context.Context, limit int) ([]model.RawRecord, error) {
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	logger.L().Debug("db_reconciled_begin", "limit", limit)
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+ReconciliationTable+" LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("store: query reconciled rows: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []model.RawRecord
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("store: scan reconciled row: %w", err)
		}
		out = append(out, rowToRecord(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_reconciled_done", "rows", len(out))
	return out, nil
}

// rowToRecord: 驱动返回的 []byte 转为字符串，其余值原样保留
func rowToRecord(cols []string, vals []any) model.RawRecord {
	r := make(model.RawRecord, len(cols))
	for i, c := range cols {
		switch v := vals[i].(type) {
		case []byte:
			r[c] = string(v)
		default:
			r[c] = v
		}
	}
	return r
}

// toInt64: 数字或数字字符串转整数，小数截断
func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	}
	s := model.Stringify(v)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// toFloat64: 数字或数字字符串转浮点，失败返回 0
func toFloat64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	}
	f, _ := strconv.ParseFloat(model.Stringify(v), 64)
	return f
}
