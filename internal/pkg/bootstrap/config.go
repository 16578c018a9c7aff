// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config 是所有二进制共享的基础设施配置。
// 先读 YAML 文件（CONFIG_FILE 指定路径），再用环境变量覆盖关键字段，
// 保证容器环境下无需挂载配置文件也能启动。
type Config struct {
	Infra struct {
		MySQL struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           string `yaml:"brokers"`
			NotificationTopic string `yaml:"notification_topic"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Servers string `yaml:"servers"`
		} `yaml:"zookeeper"`
	} `yaml:"infra"`

	Reservation struct {
		// LockBackend 可选 "redis"（默认）或 "zookeeper"
		LockBackend            string `yaml:"lock_backend"`
		DefaultDurationMinutes int    `yaml:"default_duration_minutes"`
	} `yaml:"reservation"`

	PushGateway struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"push_gateway"`
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// GetCurrentConfig 返回进程级配置单例。
func GetCurrentConfig() *Config {
	cfgOnce.Do(func() {
		c, err := loadConfig()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		cfg = c
	})
	return cfg
}

func loadConfig() (*Config, error) {
	c := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// 环境变量覆盖
	c.Infra.MySQL.DSN = getEnv("MYSQL_DSN", defaultStr(c.Infra.MySQL.DSN,
		"root:root@tcp(localhost:3306)/flashmart?charset=utf8mb4&parseTime=True&loc=Local"))
	c.Infra.Redis.Addr = getEnv("REDIS_ADDR", defaultStr(c.Infra.Redis.Addr, "localhost:6379"))
	c.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", defaultStr(c.Infra.Kafka.Brokers, "localhost:9092"))
	c.Infra.Kafka.NotificationTopic = getEnv("KAFKA_NOTIFICATION_TOPIC",
		defaultStr(c.Infra.Kafka.NotificationTopic, "flashmart.notification.jobs"))
	c.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT",
		defaultStr(c.Infra.Jaeger.Endpoint, "http://localhost:14268/api/traces"))
	c.Infra.Zookeeper.Servers = getEnv("ZK_SERVERS", defaultStr(c.Infra.Zookeeper.Servers, "localhost:2181"))
	c.Reservation.LockBackend = getEnv("RESERVATION_LOCK_BACKEND",
		defaultStr(c.Reservation.LockBackend, "redis"))
	if c.Reservation.DefaultDurationMinutes <= 0 {
		c.Reservation.DefaultDurationMinutes = 1
	}
	c.PushGateway.Endpoint = getEnv("PUSH_GATEWAY_ENDPOINT",
		defaultStr(c.PushGateway.Endpoint, "http://localhost:8088"))

	return c, nil
}

func defaultStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// getEnv 从环境变量中读取配置，缺省时使用 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
