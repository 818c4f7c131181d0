package appconf

import "strings"

// Environment identifies the operating environment the Application was
// started in. It changes logging verbosity, debug endpoint availability,
// and database safety guards.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the -env command-line flag onto an Environment.
// Unrecognized values fall back to Development.
func EnvFlagToEnvironment(flagValue string) Environment {
	switch strings.ToLower(strings.TrimSpace(flagValue)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds all the configuration settings for our Application. These are
// read from command-line flags when the server starts: the network port to
// listen on, the operating environment, the accepted API keys, and where the
// bar dataset comes from (a JSON document, a CSV table, or a SQLite cache
// produced by osmfetch).
type Config struct {
	Port    int
	Env     Environment
	ApiKeys []string

	// DataSource is a local path or HTTP(S) URL for the bar dataset.
	DataSource string
	// DataFormat selects the loader: "json", "csv" or "sqlite".
	DataFormat string

	// SettingsPath is the JSON file backing the settings store. Ignored
	// when RedisURL is set.
	SettingsPath string
	// RedisURL switches the settings store to Redis when non-empty.
	RedisURL string

	// RateLimit is the per-client request budget in requests per second.
	RateLimit int

	Verbose bool
}
