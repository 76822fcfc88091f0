package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewZapLoggerPresets(t *testing.T) {
	for _, preset := range []string{
		"console",
		"console-nocolor",
		"console-notime",
		"systemd",
		"production",
		"development",
	} {
		t.Run(preset, func(t *testing.T) {
			logger, err := NewZapLogger(preset, zapcore.DebugLevel)
			if err != nil {
				t.Fatalf("NewZapLogger(%q) failed: %v", preset, err)
			}
			if logger == nil {
				t.Fatalf("NewZapLogger(%q) = nil", preset)
			}
		})
	}
}

func TestNewZapLoggerConsoleLevel(t *testing.T) {
	logger, err := NewZapLogger("console", zapcore.WarnLevel)
	if err != nil {
		t.Fatalf("NewZapLogger() failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info level enabled, want disabled")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn level disabled, want enabled")
	}
}

func TestNewZapLoggerConfigFile(t *testing.T) {
	const config = `{
    "level": "error",
    "encoding": "json",
    "encoderConfig": {
        "messageKey": "msg",
        "levelKey": "level",
        "levelEncoder": "lowercase"
    },
    "outputPaths": ["stderr"],
    "errorOutputPaths": ["stderr"]
}`

	path := filepath.Join(t.TempDir(), "zap.json")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}

	logger, err := NewZapLogger(path, zapcore.DebugLevel)
	if err != nil {
		t.Fatalf("NewZapLogger(%q) failed: %v", path, err)
	}
	if logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn level enabled, want disabled by config file")
	}
}

func TestNewZapLoggerConfigFileUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zap.json")
	if err := os.WriteFile(path, []byte(`{"level": "info", "bogus": true}`), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
	if _, err := NewZapLogger(path, zapcore.InfoLevel); err == nil {
		t.Errorf("NewZapLogger(%q) = nil error, want error", path)
	}
}

func TestNewZapLoggerMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := NewZapLogger(path, zapcore.InfoLevel); err == nil {
		t.Errorf("NewZapLogger(%q) = nil error, want error", path)
	}
}
