package config

import "fmt"

const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"

	defaultSQLiteDSN = "cms.db"
)

type DatabaseConfig struct {
	Driver    string `yaml:"driver" json:"driver" env:"CMS_DATABASE_DRIVER"`
	DSN       string `yaml:"dsn" json:"dsn" env:"CMS_DATABASE_DSN"`
	Namespace string `yaml:"namespace" json:"namespace" env:"CMS_DATABASE_NAMESPACE"`
}

func (d *DatabaseConfig) applyDefaults(branch string) {
	if d.Driver == "" {
		d.Driver = DatabaseDriverSQLite
	}
	if d.DSN == "" && d.Driver == DatabaseDriverSQLite {
		d.DSN = defaultSQLiteDSN
	}
	if d.Namespace == "" {
		d.Namespace = branch
	}
}

func (d *DatabaseConfig) validate() error {
	switch d.Driver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres:
	default:
		return fmt.Errorf("unsupported database.driver: %s", d.Driver)
	}
	if d.DSN == "" {
		return fmt.Errorf("database.dsn must be set")
	}
	return nil
}
