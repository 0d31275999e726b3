// Package logging points the standard logger and chi's request logger at
// stdout plus a size-rotated log file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	chimw "github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures logging and returns the file sink so main can close it.
// An empty path logs to stdout only.
func Setup(path string) (io.Closer, error) {
	if path == "" {
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1, // megabytes
		MaxBackups: 10,
	}
	out := io.MultiWriter(os.Stdout, file)

	log.SetOutput(out)
	log.SetFlags(log.LstdFlags)
	chimw.DefaultLogger = chimw.RequestLogger(&chimw.DefaultLogFormatter{
		Logger:  log.New(out, "", log.LstdFlags),
		NoColor: true,
	})
	return file, nil
}
