package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultMQTTBroker = "broker.emqx.io"
	DefaultMQTTTopic  = "leantech/tesaban6/pm1"
	DefaultSiteName   = "Tesaban 6 Municipal School, Chiang Rai"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// CORSAllowedOrigins is applied to every route; "*" allows any origin.
	CORSAllowedOrigins []string

	MQTTBroker     string
	MQTTPort       int
	MQTTTopic      string
	MQTTClientID   string
	ConnectTimeout time.Duration

	SiteName string

	// IngestQueueSize bounds the channel between the MQTT callback and the render loop.
	IngestQueueSize int
	// RefreshInterval is the render loop tick.
	RefreshInterval time.Duration

	TrendMaxDays int

	PublishInterval time.Duration
}

// LoadFromEnv reads configuration from the environment. A .env file in the
// working directory is loaded first when present, and CONFIG_FILE may point
// at a yaml/toml/json file carrying the same keys. Real environment variables
// win over both. appName is the default MQTT client id.
func LoadFromEnv(appName string) (Config, error) {
	v, err := newSource()
	if err != nil {
		return Config{}, err
	}
	get := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	appEnv := get("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := get("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := get("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	corsOrigins := parseList(get("CORS_ALLOWED_ORIGINS"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	mqttBroker := get("MQTT_BROKER")
	if mqttBroker == "" {
		mqttBroker = DefaultMQTTBroker
	}

	mqttPort, err := parsePositiveInt("MQTT_PORT", get("MQTT_PORT"), 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d: must be <= 65535", mqttPort)
	}

	mqttTopic := get("MQTT_TOPIC")
	if mqttTopic == "" {
		mqttTopic = DefaultMQTTTopic
	}

	mqttClientID := get("MQTT_CLIENT_ID")
	if mqttClientID == "" {
		mqttClientID = appName
	}

	connectTimeout, err := parsePositiveDuration("MQTT_CONNECT_TIMEOUT", get("MQTT_CONNECT_TIMEOUT"), 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	siteName := get("SITE_NAME")
	if siteName == "" {
		siteName = DefaultSiteName
	}

	ingestQueueSize, err := parsePositiveInt("INGEST_QUEUE_SIZE", get("INGEST_QUEUE_SIZE"), 64)
	if err != nil {
		return Config{}, err
	}

	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", get("REFRESH_INTERVAL"), 2*time.Second)
	if err != nil {
		return Config{}, err
	}

	trendMaxDays, err := parsePositiveInt("TREND_MAX_DAYS", get("TREND_MAX_DAYS"), 366)
	if err != nil {
		return Config{}, err
	}

	publishInterval, err := parsePositiveDuration("PUBLISH_INTERVAL", get("PUBLISH_INTERVAL"), 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		HTTPAddr:           httpAddr,
		CORSAllowedOrigins: corsOrigins,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTTopic:          mqttTopic,
		MQTTClientID:       mqttClientID,
		ConnectTimeout:     connectTimeout,
		SiteName:           siteName,
		IngestQueueSize:    ingestQueueSize,
		RefreshInterval:    refreshInterval,
		TrendMaxDays:       trendMaxDays,
		PublishInterval:    publishInterval,
	}, nil
}

func newSource() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE %q: %w", path, err)
		}
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func parsePositiveInt(key, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func parsePositiveDuration(key, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
