// Package config loads runtime settings for the billkeeper CLI.
package config

// Config holds runtime settings.
//
// Fields:
//   - DatabasePath: path of the sqlite database file.
//   - BackupDir: directory that backup archives are written to.
//   - AppVersion: version string recorded in archive headers.
type Config struct {
	DatabasePath string
	BackupDir    string
	AppVersion   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "billkeeper.db"
	c.BackupDir = "backups"
	c.AppVersion = "dev"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file was given) and command-line flags. Later
// sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
