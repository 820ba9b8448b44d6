package config

const (
	defaultServerAddr = ":8080"
)

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr" env:"CMS_SERVER_ADDR"`
	CORS bool   `yaml:"cors" json:"cors" env:"CMS_SERVER_CORS"`

	// TrustProxy honours X-Forwarded-Proto. Enable only behind a proxy that
	// overwrites the header.
	TrustProxy bool `yaml:"trustProxy" json:"trustProxy" env:"CMS_SERVER_TRUST_PROXY"`
}

func (s *ServerConfig) applyDefaults() {
	if s.Addr == "" {
		s.Addr = defaultServerAddr
	}
}
