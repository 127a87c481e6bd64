package config

import (
	"fmt"
	"os"
)

type Config struct {
	HTTPAddr  string
	DBDSN     string
	JWTSecret string

	// BroadcastBackend selects how group broadcasts are fanned out:
	// "local" keeps everything in-process, "redis" bridges instances
	// through a pub/sub channel.
	BroadcastBackend string
	RedisAddr        string
	RedisPassword    string
	RedisChannel     string
}

func Load() Config {
	// DSN demo:
	// app:apppass@tcp(127.0.0.1:3306)/chatting?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			"app", "apppass", "127.0.0.1", "3306", "chatting",
		)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backend := os.Getenv("BROADCAST_BACKEND")
	if backend == "" {
		backend = "local"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisChannel := os.Getenv("REDIS_BROADCAST_CHANNEL")
	if redisChannel == "" {
		redisChannel = "chatting.broadcast"
	}

	return Config{
		HTTPAddr:  addr,
		DBDSN:     dsn,
		JWTSecret: secret,

		BroadcastBackend: backend,
		RedisAddr:        redisAddr,
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisChannel:     redisChannel,
	}
}
