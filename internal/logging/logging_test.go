package logging

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "blog.log")
	closer, err := Setup(path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
	})

	log.Println("Blog startup")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "Blog startup") {
		t.Fatalf("log file missing startup line: %q", data)
	}
}

func TestSetupEmptyPath(t *testing.T) {
	closer, err := Setup("")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
