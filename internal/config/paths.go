package config

import (
	"os"
	"path/filepath"
)

// Paths holds resolved filesystem locations for orderdesk state.
type Paths struct {
	Home   string // base directory, default ~/.orderdesk
	Config string // config file path
	Data   string // data directory (sqlite etc.)
}

// ResolvePaths computes the default paths, honoring ORDERDESK_HOME.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("ORDERDESK_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, ".orderdesk")
	}
	return Paths{
		Home:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
	}, nil
}
