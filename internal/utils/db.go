// 包 utils：数据库、Redis 与证书等进程级资源的打开工具，统一环境变量读取
package utils

import (
	"database/sql"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// DefaultPGDatabase：对账数据所在库
const DefaultPGDatabase = "hackathon_2025"

func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

// BuildPostgresDSN：由取值函数拼接 DSN，测试中以 map 代替环境变量
func BuildPostgresDSN(get func(string) string) string {
	host := orDefault(get("PG_HOST"), "localhost")
	port := orDefault(get("PG_PORT"), "5432")
	user := orDefault(get("PG_USER"), "postgres")
	pass := get("PG_PASSWORD")
	db := orDefault(get("PG_DB"), DefaultPGDatabase)
	ssl := orDefault(get("PG_SSLMODE"), "disable")
	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
	return dsn
}

func BuildPostgresDSNFromEnv() string { return BuildPostgresDSN(os.Getenv) }

func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	maxOpen := 10
	maxIdle := 5
	if v := os.Getenv("PG_MAX_OPEN_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			maxOpen = n
		}
	}
	if v := os.Getenv("PG_MAX_IDLE_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			maxIdle = n
		}
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
