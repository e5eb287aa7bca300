package core

import (
	"os"
	"path/filepath"
)

type Paths struct {
	DataDir           string
	LogFile           string
	HistoryFile       string
	ConfigFile        string
	SchemaVersionFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		dataDir := filepath.Join(homeDir, ".dreamcmd")
		defaultPaths = &Paths{
			DataDir:           dataDir,
			LogFile:           filepath.Join(dataDir, "dreamcmd.log"),
			HistoryFile:       filepath.Join(dataDir, "history.db"),
			ConfigFile:        filepath.Join(dataDir, "config.yaml"),
			SchemaVersionFile: filepath.Join(dataDir, "history_schema_version"),
		}

		err = os.MkdirAll(defaultPaths.DataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func HistoryFile() string {
	ensureDefaultPaths()
	return defaultPaths.HistoryFile
}

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}

func SchemaVersionFile() string {
	ensureDefaultPaths()
	return defaultPaths.SchemaVersionFile
}

// ResetPaths clears the cached paths, forcing them to be reinitialized.
// This is primarily used for testing purposes.
func ResetPaths() {
	defaultPaths = nil
}
