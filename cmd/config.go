package main

import "time"

type Config struct {
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
	LogLevel                  string        `env:"LOG_LEVEL,default=info"`
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,default=5s"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HeartbeatInterval         time.Duration `env:"HEARTBEAT_INTERVAL,default=15s"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}
