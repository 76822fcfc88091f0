package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/database64128/nl-go/jsoncfg"
	"github.com/database64128/nl-go/logging"
	"github.com/database64128/nl-go/nlsock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	testConf bool
	confPath string
	zapConf  string
	logLevel zapcore.Level
)

func init() {
	flag.BoolVar(&testConf, "testConf", false, "Test the configuration file without opening a socket")
	flag.StringVar(&confPath, "confPath", "", "Path to JSON configuration file")
	flag.StringVar(&zapConf, "zapConf", "console", "Preset name or path to JSON configuration file for building the zap logger.\nAvailable presets: console (default), console-nocolor, console-notime, systemd, production, development")
	flag.TextVar(&logLevel, "logLevel", zapcore.InfoLevel, "Log level for the console and systemd presets.\nAvailable levels: debug, info, warn, error, dpanic, panic, fatal")
}

func main() {
	flag.Parse()

	if confPath == "" {
		fmt.Println("Missing -confPath <path>.")
		flag.Usage()
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(zapConf, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger with config %q: %v\n", zapConf, err)
		os.Exit(1)
	}
	defer logger.Sync()

	var c Config
	if err = jsoncfg.Open(confPath, &c); err != nil {
		logger.Fatal("Failed to load config",
			zap.String("confPath", confPath),
			zap.Error(err),
		)
	}

	if err = c.CheckAndApplyDefaults(); err != nil {
		logger.Fatal("Invalid config",
			zap.String("confPath", confPath),
			zap.Error(err),
		)
	}

	if testConf {
		logger.Info("Config test OK", zap.String("confPath", confPath))
		return
	}

	s := nlsock.Config{
		Binder: nlsock.KernelBinder{Options: c.Socket},
	}.New(c.Log.NewLogger(os.Stderr))
	defer s.Close()

	if c.Connect {
		if err = s.Connect(c.Protocol); err != nil {
			logger.Fatal("Failed to connect socket",
				zap.Stringer("protocol", c.Protocol),
				zap.Error(err),
			)
		}
	}

	for i := range c.Messages {
		msg := c.Messages[i].Message(s)
		s.Complete(msg)

		b, err := msg.MarshalBinary()
		if err != nil {
			logger.Fatal("Failed to encode message", zap.Int("index", i), zap.Error(err))
		}

		logger.Info("Completed message",
			zap.Int("index", i),
			zap.Stringer("protocol", msg.Protocol),
			zap.Stringer("type", msg.Header.Type),
			zap.Stringer("flags", msg.Header.Flags),
			zap.Uint32("seq", msg.Header.Seq),
			zap.Uint32("portID", msg.Header.PortID),
			zap.String("bytes", hex.EncodeToString(b)),
		)
	}
}
