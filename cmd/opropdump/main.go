// opropdump is a small inspection tool for serialized ObjectProperty
// payloads. It peels the outer envelope (stateful flags, compression) and
// reports the wire-level identity of the contained object without needing
// the application's class definitions.
package main

import (
	"bytes"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mirrorlake/oprop/bitbuf"
	"github.com/mirrorlake/oprop/object"
	"github.com/mirrorlake/oprop/serde"
)

func main() {
	var (
		stateful   = pflag.Bool("stateful", false, "payload carries its serializer flags in a leading byte")
		compressed = pflag.Bool("compressed", false, "payload uses the COMPRESS envelope")
		storage    = pflag.Bool("storage", false, "payload uses the marker-less persistent storage envelope")
		deep       = pflag.Bool("deep", false, "payload uses deep per-property framing")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	if pflag.NArg() != 1 {
		logger.Fatal("usage: opropdump [flags] <payload file>")
	}

	data, err := os.ReadFile(pflag.Arg(0))
	if err != nil {
		logger.Fatalw("failed to read payload", "err", err)
	}
	logger.Debugw("payload read", "path", pflag.Arg(0), "bytes", len(data))

	config := serde.DefaultConfig()
	if *stateful {
		config.Flags |= serde.StatefulFlags
	}
	if *compressed {
		config.Flags |= serde.Compress
	}

	probe := newProbe(config)

	var scratch bytes.Buffer
	if *storage {
		err = probe.LoadCompressed(data, &scratch)
	} else {
		err = probe.Load(data, &scratch)
	}
	if err != nil {
		logger.Fatalw("failed to load payload", "err", err)
	}

	reader := probe.Reader()
	logger.Infow("payload body", "bits", reader.Len(), "bytes", (reader.Len()+7)/8)

	typeHash, err := reader.ReadUint32()
	if err != nil {
		logger.Fatalw("failed to read type tag", "err", err)
	}
	if typeHash == 0 {
		logger.Infow("payload carries a null object")

		return
	}
	logger.Infow("object identity", "type_hash", typeHash)

	if *deep {
		dumpDeepFrames(logger, reader)
	}
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return logger.Sugar()
}

func newProbe(config serde.Config) *serde.Deserializer {
	// The probe never resolves classes, so an empty registry suffices as
	// the type tag source; frames are walked manually.
	config.Shallow = true

	return serde.NewDeserializer(config, object.NewRegistry())
}

// dumpDeepFrames walks the length/hash records of a deep-mode object
// without decoding the values.
func dumpDeepFrames(logger *zap.SugaredLogger, reader *bitbuf.Reader) {
	objectSize, err := reader.ReadUint32()
	if err != nil {
		logger.Fatalw("failed to read object size", "err", err)
	}
	logger.Infow("deep object", "declared_bits", objectSize)

	for reader.Len() > 0 {
		start := reader.Pos()
		propertySize, err := reader.ReadUint32()
		if err != nil {
			return
		}
		propertyHash, err := reader.ReadUint32()
		if err != nil {
			return
		}
		logger.Infow("property record", "hash", propertyHash, "bits", propertySize)

		skip := int(propertySize) - (reader.Pos() - start)
		if skip < 0 || reader.Skip(skip) != nil {
			logger.Warnw("property record overruns payload", "hash", propertyHash)

			return
		}
	}
}
