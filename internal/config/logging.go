package config

import "github.com/ecodetect/ecodetect/internal/logging"

// ToLoggingConfig converts the file settings into a logging.Config. A
// configured file switches output to that file.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = outputTypeFile
	}
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

// GetLoggingConfig returns a copy of the global logging settings.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
