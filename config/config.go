package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	CORSAllowOrigins   string        `mapstructure:"cors_allow_origins"`

	// 日志配置
	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBSSLMode         string `mapstructure:"db_ssl_mode"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 缓存配置
	CacheType          string        `mapstructure:"cache_type"`
	CacheRedisAddr     string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string        `mapstructure:"cache_redis_password"`
	CacheRedisDB       int           `mapstructure:"cache_redis_db"`
	CacheUserTTL       time.Duration `mapstructure:"cache_user_ttl"`

	// 存储配置
	StorageType             string        `mapstructure:"storage_type"`
	StorageLocalPath        string        `mapstructure:"storage_local_path"`
	StorageMinioEndpoint    string        `mapstructure:"storage_minio_endpoint"`
	StorageMinioAccessKey   string        `mapstructure:"storage_minio_access_key"`
	StorageMinioSecretKey   string        `mapstructure:"storage_minio_secret_key"`
	StorageMinioBucket      string        `mapstructure:"storage_minio_bucket"`
	StorageMinioUseSSL      bool          `mapstructure:"storage_minio_use_ssl"`
	StorageWebDAVURL        string        `mapstructure:"storage_webdav_url"`
	StorageWebDAVUsername   string        `mapstructure:"storage_webdav_username"`
	StorageWebDAVPassword   string        `mapstructure:"storage_webdav_password"`
	StorageWebDAVRootPath   string        `mapstructure:"storage_webdav_root_path"`
	StorageWebDAVTimeout    time.Duration `mapstructure:"storage_webdav_timeout"`
	StorageCloudinaryURL    string        `mapstructure:"storage_cloudinary_url"`
	StorageCloudinaryFolder string        `mapstructure:"storage_cloudinary_folder"`
	StorageDeleteTimeout    time.Duration `mapstructure:"storage_delete_timeout"`

	// JWT 配置
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiresIn time.Duration `mapstructure:"jwt_expires_in"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitAuthRPS    float64       `mapstructure:"rate_limit_auth_rps"`
	RateLimitAuthBurst  int           `mapstructure:"rate_limit_auth_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 上传配置
	UploadMaxSizeMB      int   `mapstructure:"upload_max_size_mb"`
	UploadMaxConcurrency int64 `mapstructure:"upload_max_concurrency"`

	// 检查流程配置
	StudyStrictTransitions bool `mapstructure:"study_strict_transitions"`
	StudyDoctorSelfAssign  bool `mapstructure:"study_doctor_self_assign"`
	StudyExtractMetadata   bool `mapstructure:"study_extract_metadata"`

	// Worker 配置
	WorkerCount     int `mapstructure:"worker_count"`
	WorkerQueueSize int `mapstructure:"worker_queue_size"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	} else {
		fmt.Fprintln(os.Stderr, "Info: Loaded configuration from .env file")
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}

	// WorkerCount: -1 = 使用 CPU 线程数, 0 = 使用默认值, >0 = 使用指定值
	switch {
	case globalConfig.WorkerCount < 0:
		globalConfig.WorkerCount = runtime.GOMAXPROCS(0)
	case globalConfig.WorkerCount == 0:
		globalConfig.WorkerCount = getCpus()
	}
}

// setDefaults 设置默认值
func setDefaults() {
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "60s")
	viper.SetDefault("server_write_timeout", "120s")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("cors_allow_origins", "")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_pretty", false)

	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "dicom_portal")
	viper.SetDefault("db_ssl_mode", "disable")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 50)
	viper.SetDefault("db_max_idle_conns", 10)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_user_ttl", "5m")

	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_local_path", "./data/blobs")
	viper.SetDefault("storage_minio_bucket", "dicom-files")
	viper.SetDefault("storage_minio_use_ssl", false)
	viper.SetDefault("storage_webdav_timeout", "60s")
	viper.SetDefault("storage_cloudinary_folder", "dicom")
	viper.SetDefault("storage_delete_timeout", "10s")

	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("jwt_expires_in", "12h")

	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_auth_rps", 0.5)
	viper.SetDefault("rate_limit_auth_burst", 5)
	viper.SetDefault("rate_limit_expire_time", "10m")

	viper.SetDefault("upload_max_size_mb", 100)
	viper.SetDefault("upload_max_concurrency", 8)

	viper.SetDefault("study_strict_transitions", false)
	viper.SetDefault("study_doctor_self_assign", true)
	viper.SetDefault("study_extract_metadata", true)

	viper.SetDefault("worker_count", 0)
	viper.SetDefault("worker_queue_size", 256)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回服务对外访问地址
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// AllowedOrigins 返回 CORS 允许的来源列表
func (c *Config) AllowedOrigins() []string {
	if c.CORSAllowOrigins == "" {
		return []string{c.BaseURL()}
	}
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// UploadMaxBytes 单个 DICOM 文件的最大字节数
func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxSizeMB <= 0 {
		return 100 << 20
	}
	return int64(c.UploadMaxSizeMB) << 20
}

// GetWorkerCount 返回 worker 数量
func (c *Config) GetWorkerCount() int {
	if c.WorkerCount <= 0 {
		return getCpus()
	}
	return c.WorkerCount
}

// getCpus 获取默认线程数量
func getCpus() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		return 2
	}
	return n
}
