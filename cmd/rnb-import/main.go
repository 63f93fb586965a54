// 对账导入工具：读取对账表，按 RNB 标识拉取建筑详情并写入 PostgreSQL（地址、建筑、代表点与轮廓）
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"

	"rnb-admin/internal/config"
	"rnb-admin/internal/importer"
	"rnb-admin/internal/logger"
	"rnb-admin/internal/migrate"
	"rnb-admin/internal/rnb"
	"rnb-admin/internal/store"
	"rnb-admin/internal/utils"
)

func main() {
	cfg := config.Load()
	l := logger.Setup()
	limit := flag.Int("limit", store.DefaultRowLimit, "maximum reconciled rows to import")
	workers := flag.Int("workers", 4, "concurrent registry requests per row")
	skipSchema := flag.Bool("skip-schema", false, "do not create tables before importing")
	flag.Parse()

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
		os.Exit(1)
	}
	l.Info("db_ping_ok")
	if !*skipSchema {
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := store.AttachDB(db)
	im := &importer.Importer{
		Source:   st,
		Registry: rnb.NewClient(cfg.RNBUpstream, &http.Client{Timeout: cfg.HTTPTimeout}),
		Sink:     st,
		Limit:    *limit,
		Workers:  *workers,
		Logger:   l,
	}
	rep, err := im.Run(ctx)
	if err != nil {
		l.Error("import_error", "err", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
	if rep.Failed > 0 {
		os.Exit(2)
	}
}
