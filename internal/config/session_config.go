package config

import "time"

const (
	defaultStateTTL = 10 * time.Minute
)

// SessionConfig selects where the emulated browser storage of the admin
// host lives. An empty RedisAddr keeps it in memory.
type SessionConfig struct {
	RedisAddr     string        `yaml:"redisAddr" json:"redisAddr" env:"CMS_SESSION_REDIS_ADDR"`
	RedisPassword string        `yaml:"redisPassword" json:"redisPassword" env:"CMS_SESSION_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redisDB" json:"redisDB" env:"CMS_SESSION_REDIS_DB"`
	StateTTL      time.Duration `yaml:"stateTTL" json:"stateTTL" env:"CMS_SESSION_STATE_TTL"`
}

func (s *SessionConfig) applyDefaults() {
	if s.StateTTL <= 0 {
		s.StateTTL = defaultStateTTL
	}
}
