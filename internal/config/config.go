package config

import (
	"os"
	"strconv"

	"econet-data/pkg/database"
)

// Config econet-data（称重数据 API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  database.Config
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Fanout   FanoutConfig
	MQTT     MQTTConfig
	Advisory AdvisoryConfig
}

// FanoutConfig 扇出发布配置
type FanoutConfig struct {
	Stream         string // Redis Streams 流名称
	GatewayEnabled bool   // 是否同时推送实时网关
	GatewayURL     string // 实时网关地址
	GatewayTimeout int    // 网关推送超时（秒）
}

// MQTTConfig MQTT 配置（秤网关上报通道）
type MQTTConfig struct {
	Enabled  bool   // 是否启用 MQTT 摄入（默认 false）
	Broker   string // Broker 地址（如 "tcp://localhost:1883"）
	ClientID string // 客户端 ID
	Username string // 用户名（可选）
	Password string // 密码（可选）
	Topic    string // 订阅主题（如 "scales/readings"）
	QoS      byte   // QoS 等级
}

// AdvisoryConfig 未清空提示巡检配置
type AdvisoryConfig struct {
	Enabled bool
	Spec    string // cron 表达式，默认每日 18:00 UTC
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// 本地开发默认开启 DB；连接失败时 main 会回退到内存 repo
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "econet")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 扇出配置
	cfg.Fanout.Stream = getEnv("FANOUT_STREAM", "waste:events")
	cfg.Fanout.GatewayEnabled = getEnv("FANOUT_GATEWAY_ENABLED", "false") == "true"
	cfg.Fanout.GatewayURL = getEnv("FANOUT_GATEWAY_URL", "http://localhost:8090")
	cfg.Fanout.GatewayTimeout = parseInt(getEnv("FANOUT_GATEWAY_TIMEOUT", "5"), 5)

	// MQTT 配置（秤网关上报，默认禁用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "econet-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "scales/readings")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	// 巡检配置
	cfg.Advisory.Enabled = getEnv("ADVISORY_ENABLED", "true") == "true"
	cfg.Advisory.Spec = getEnv("ADVISORY_CRON", "0 18 * * *")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
