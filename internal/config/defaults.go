package config

// Default configuration values.
const (
	DefaultStateFile = ".leapdiff/state.db"
	DefaultEnv       = "dev"
	DefaultOutput    = OutputAuto
)

// Output modes.
const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
)

// configFileNames are searched in order.
var configFileNames = []string{"leapdiff.yaml", "leapdiff.yml"}

// envPrefix is the prefix of environment variables read by Load.
const envPrefix = "LEAPDIFF_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10
