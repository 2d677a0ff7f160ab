package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects the process identity, resources and feature flags
// of a reel-studio process and emits them as one structured event, so a
// single log line shows how a server or Lambda was configured.
type StartupLogger struct {
	name         string
	version      string
	logLevel     string
	initDuration time.Duration

	resources map[string]map[string]string
	features  map[string]bool
	config    map[string]string
}

// NewStartupLogger creates a StartupLogger for the named entrypoint
// (e.g. "reelctl-serve", "reel-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:      name,
		resources: make(map[string]map[string]string),
		features:  make(map[string]bool),
		config:    make(map[string]string),
	}
}

// Version sets the build version baked into the binary.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// LogLevel records the configured log level.
func (s *StartupLogger) LogLevel(level string) *StartupLogger {
	s.logLevel = level
	return s
}

// Resource registers an external resource under a kind such as "s3Buckets",
// "dynamoTables", "redis" or "files". Empty names are skipped.
func (s *StartupLogger) Resource(kind, label, name string) *StartupLogger {
	if name == "" {
		return s
	}
	if s.resources[kind] == nil {
		s.resources[kind] = make(map[string]string)
	}
	s.resources[kind][label] = name
	return s
}

// Feature registers a boolean feature flag (e.g. "geminiShots", "s3Sink").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long initialization took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// Log emits a single structured INFO event with everything collected.
func (s *StartupLogger) Log() {
	evt := log.Info()

	proc := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Int("pid", os.Getpid())
	if s.version != "" {
		proc = proc.Str("version", s.version)
	}
	if s.logLevel != "" {
		proc = proc.Str("logLevel", s.logLevel)
	}
	// Lambda identity, when running there.
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		proc = proc.Str("functionName", fn).
			Str("functionVersion", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
			Str("region", os.Getenv("AWS_REGION"))
	}
	evt = evt.Dict("process", proc)

	if len(s.resources) > 0 {
		res := zerolog.Dict()
		for kind, m := range s.resources {
			res = res.Dict(kind, dictFromMap(m))
		}
		evt = evt.Dict("resources", res)
	}

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

// dictFromMap converts a map[string]string into a zerolog Dict.
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
