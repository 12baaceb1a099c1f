package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hirelink/config"
	"github.com/yoockh/hirelink/internal/cache"
)

func postingCache(log *logrus.Logger) cache.Cache {
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("redis unavailable; posting cache will not be invalidated")
		return cache.Noop{}
	}
	return cache.NewRedisCache(config.RedisClient, "hirelink:")
}
