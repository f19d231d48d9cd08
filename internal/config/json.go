package config

import (
	"os"

	"billkeeper/internal/flagx"
	"github.com/goccy/go-json"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling; values are
// copied into the runtime Config afterwards.
type JsonConfig struct {
	DatabasePath string `json:"database_path"`
	BackupDir    string `json:"backup_dir"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. If no file was given it does nothing. Read or unmarshal
// errors panic; config is resolved once at startup and a broken file should
// stop the program.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.BackupDir != "" {
		cfg.BackupDir = jc.BackupDir
	}
}
