package utils

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileOptions configures the rotating file behind a logger
type LogFileOptions struct {
	Output     string // stdout, file, both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// NewRotatingLogger returns a logger writing to stdout and/or a rotating file.
// If the file directory cannot be created the logger falls back to stdout.
func NewRotatingLogger(prefix string, opts LogFileOptions) (*log.Logger, io.Closer) {
	flags := log.LstdFlags | log.Lmicroseconds | log.LUTC
	if opts.Output == "stdout" || opts.FilePath == "" {
		return log.New(os.Stdout, prefix, flags), io.NopCloser(nil)
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
		l := log.New(os.Stdout, prefix, flags)
		l.Printf("failed to create log directory for %s: %v", opts.FilePath, err)
		return l, io.NopCloser(nil)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}

	var w io.Writer = fileWriter
	if opts.Output == "both" {
		w = io.MultiWriter(os.Stdout, fileWriter)
	}
	return log.New(w, prefix, flags), fileWriter
}
