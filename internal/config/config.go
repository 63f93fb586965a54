// 包 config：启动时一次性解析环境变量，之后以值的方式注入各组件，避免业务代码随处读取 os.Getenv
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProd = "prod"
	EnvDev  = "dev"

	// DefaultRNBAPIBase：生产环境直连 RNB 公共 API
	DefaultRNBAPIBase = "https://rnb-api.beta.gouv.fr"
	// DevRNBProxyPath：开发环境经本服务的 /rnb 反向代理访问，规避浏览器跨域
	DevRNBProxyPath = "/rnb"
)

// 文档注释：进程级配置
// 背景：API 基础路径、注册表地址等由运行环境决定；统一在入口解析，构造函数显式接收，便于测试替换。
// 约束：解析后只读；字段缺省值与示例 .env 保持一致。
type Config struct {
	Env  string
	Addr string
	// APIBase：本服务挂载 API 的路径前缀
	APIBase string
	// APIURL：控制台等客户端访问本服务 API 的完整地址
	APIURL string
	// RNBAPIBase：客户端访问注册表的根地址（不含 /api/alpha）
	RNBAPIBase string
	// RNBUpstream：服务端直连的注册表地址，也是开发代理的转发目标
	RNBUpstream string
	// UIDir：前端构建产物目录
	UIDir string

	DataFile      string
	ItemsLimit    int
	ClosestRadius int
	RNBCacheTTL   time.Duration
	HTTPTimeout   time.Duration

	RateLimitEnabled bool
	RateLimitQPS     int
	CORSOrigin       string

	// WriteAllowlistEnabled：开启后只有白名单来源可以调用写接口
	WriteAllowlistEnabled bool
	WriteAllowIPs         []string
	WriteAllowCIDRs       []string
	WriteAllowLocal       bool
	RealIPHeader          string

	// TLSEnable：默认关闭；开启且证书缺失时生成自签证书
	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// LoadDotenv：依次加载 .env 与 data/env/.env，缺失文件静默忽略
func LoadDotenv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：加载 .env 后从环境变量构造配置
func Load() Config {
	LoadDotenv()
	return FromEnv(os.Getenv)
}

// 文档注释：从任意取值函数构造配置
// 背景：测试中以 map 代替真实环境变量；生产传入 os.Getenv。
func FromEnv(get func(string) string) Config {
	c := Config{
		Env:           strings.ToLower(orDefault(get("APP_ENV"), EnvProd)),
		Addr:          orDefault(get("ADDR"), ":8080"),
		APIBase:       orDefault(get("API_BASE"), "/api"),
		DataFile:      orDefault(get("DATA_FILE"), filepath.Join("data", "data.json")),
		ItemsLimit:    intOr(get("ITEMS_LIMIT"), 10),
		ClosestRadius: intOr(get("RNB_CLOSEST_RADIUS"), 5),
		RNBCacheTTL:   time.Duration(intOr(get("RNB_CACHE_TTL_S"), 3600)) * time.Second,
		HTTPTimeout:   time.Duration(intOr(get("HTTP_TIMEOUT_MS"), 5000)) * time.Millisecond,
		RateLimitQPS:  intOr(get("RATE_LIMIT_QPS"), 200),
		CORSOrigin:    orDefault(get("CORS_ORIGIN"), "*"),
	}
	c.RateLimitEnabled = get("RATE_LIMIT_ENABLED") == "true"
	c.TLSEnable = get("TLS_ENABLE") == "true"
	c.WriteAllowlistEnabled = get("WRITE_ALLOWLIST_ENABLE") == "true"
	c.WriteAllowIPs = splitList(get("WRITE_ALLOW_IPS"))
	c.WriteAllowCIDRs = splitList(get("WRITE_ALLOW_CIDRS"))
	c.WriteAllowLocal = get("WRITE_ALLOW_LOCAL") != "false"
	c.RealIPHeader = strings.TrimSpace(get("REAL_IP_HEADER"))
	c.TLSCertPath = orDefault(get("TLS_CERT_PATH"), filepath.Join("data", "certs", "server.crt"))
	c.TLSKeyPath = orDefault(get("TLS_KEY_PATH"), filepath.Join("data", "certs", "server.key"))
	c.APIURL = strings.TrimRight(get("CONSOLE_API_URL"), "/")
	if c.APIURL == "" {
		c.APIURL = "http://localhost" + c.Addr + c.APIBase
	}
	c.RNBAPIBase = resolveRNBBase(get("RNB_API_BASE"), c.Env, c.Addr)
	c.RNBUpstream = strings.TrimRight(orDefault(get("RNB_UPSTREAM"), DefaultRNBAPIBase), "/")
	c.UIDir = orDefault(get("UI_DIST"), filepath.Join("client", "dist"))
	return c
}

// 文档注释：注册表根地址选择
// 背景：显式配置优先；开发环境走本地反向代理；其余情况使用公共 API。
func resolveRNBBase(explicit, env, addr string) string {
	if explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	if env == EnvDev {
		return "http://localhost" + addr + DevRNBProxyPath
	}
	return DefaultRNBAPIBase
}

// IsDev：是否开发环境（决定是否挂载 /rnb 反向代理）
func (c Config) IsDev() bool { return c.Env == EnvDev }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// splitList：逗号分隔，去掉空项
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// intOr：解析失败或非正数时回退默认值
func intOr(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
