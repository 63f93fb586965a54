package utils

import (
	"os"
	"strconv"

	"rnb-admin/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：使用地址与密码打开 Redis 客户端
// 背景：保留直接传入参数的能力，用于测试与手工注入场景
func OpenRedis(addr, pass string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass})
}

// RedisOptions：由取值函数构造连接参数；REDIS_HOST 未配置时返回 nil（缓存关闭）
// 约束：REDIS_DB 解析失败时忽略并回退到 0
func RedisOptions(get func(string) string) *redis.Options {
	host := get("REDIS_HOST")
	if host == "" {
		return nil
	}
	port := orDefault(get("REDIS_PORT"), "6379")
	db := 0
	if v := get("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	return &redis.Options{Addr: host + ":" + port, Password: get("REDIS_PASS"), DB: db}
}

// OpenRedisFromEnv：从环境变量打开 Redis 客户端；未配置时返回 nil
func OpenRedisFromEnv() *redis.Client {
	opt := RedisOptions(os.Getenv)
	if opt == nil {
		logger.L().Debug("redis_env", "enabled", false)
		return nil
	}
	logger.L().Debug("redis_env", "addr", opt.Addr, "db", opt.DB)
	return redis.NewClient(opt)
}
