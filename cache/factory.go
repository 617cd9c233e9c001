package cache

import (
	"fmt"

	"github.com/anoixa/dicom-portal/cache/memory"
	"github.com/anoixa/dicom-portal/cache/redis"
	"github.com/anoixa/dicom-portal/config"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "dicom-portal:"

// NewProvider 根据配置创建缓存提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "", "memory":
		provider, err := memory.NewMemory(memory.DefaultConfig())
		if err != nil {
			return nil, err
		}
		log.Info().Str("cache", provider.Name()).Msg("cache provider initialized")
		return provider, nil
	case "redis":
		provider, err := redis.NewRedisFromConfig(&redis.Config{
			Address:      cfg.CacheRedisAddr,
			Password:     cfg.CacheRedisPassword,
			DB:           cfg.CacheRedisDB,
			PoolSize:     10,
			MinIdleConns: 2,
			KeyPrefix:    redisKeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("cache", provider.Name()).Str("addr", cfg.CacheRedisAddr).Msg("cache provider initialized")
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}
