package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_DualOutput(t *testing.T) {
	// Create temporary file for testing
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	opts := Options{
		Env:          "prod",
		ConsoleLevel: "info",
		FileLevel:    "debug",
		File:         logFile,
		App:          "test-app",
		Console:      io.Discard,
	}

	logger := New(opts)
	defer func() {
		err := Close(logger)
		if err != nil {
			t.Errorf("Error closing logger: %v", err)
		}
	}()

	// Test logging at different levels
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	// Give some time for file writes
	time.Sleep(100 * time.Millisecond)

	// Check that file was created and contains logs
	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	fileContent := string(content)

	// File should contain all messages (debug level includes all)
	if !strings.Contains(fileContent, "debug message") {
		t.Error("File should contain debug message")
	}
	if !strings.Contains(fileContent, "info message") {
		t.Error("File should contain info message")
	}
	if !strings.Contains(fileContent, "warn message") {
		t.Error("File should contain warn message")
	}

	// Check JSON format
	if !strings.Contains(fileContent, `"level":"DEBUG"`) {
		t.Error("File should contain JSON formatted debug level")
	}
	if !strings.Contains(fileContent, `"app":"test-app"`) {
		t.Error("File should contain app field")
	}
}

func TestNew_DefaultLevels(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "default.log")

	opts := Options{
		Env:     "prod",
		File:    logFile,
		App:     "test-app",
		Console: io.Discard,
	}

	logger := New(opts)
	defer func() {
		err := Close(logger)
		if err != nil {
			t.Errorf("Error closing logger: %v", err)
		}
	}()

	if logger == nil {
		t.Fatal("Logger should not be nil")
	}

	logger.Debug("debug message")
	logger.Info("info message")

	time.Sleep(100 * time.Millisecond)

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	fileContent := string(content)

	if !strings.Contains(fileContent, "debug message") {
		t.Error("Default file level should include debug messages")
	}
	if !strings.Contains(fileContent, "info message") {
		t.Error("File should contain info message")
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	// Test console-only mode (no file specified)
	var console bytes.Buffer
	opts := Options{
		Env:          "dev",
		ConsoleLevel: "info",
		App:          "test-app",
		Console:      &console,
	}

	logger := New(opts)
	defer func() {
		err := Close(logger)
		if err != nil {
			t.Errorf("Error closing logger: %v", err)
		}
	}()

	logger.Debug("hidden message")
	logger.Info("console only message", slog.String("email", "a@x.com"))

	out := console.String()
	if !strings.Contains(out, "console only message") {
		t.Error("Console should contain info message")
	}
	if strings.Contains(out, "hidden message") {
		t.Error("Console should skip messages below its level")
	}
	if strings.Contains(out, "a@x.com") {
		t.Error("Console output should be redacted")
	}
}

func TestNew_DifferentLevels(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "levels.log")

	opts := Options{
		Env:          "prod",
		ConsoleLevel: "warn",  // Only warn and error to console
		FileLevel:    "debug", // All levels to file
		File:         logFile,
		App:          "test-app",
		Console:      io.Discard,
	}

	logger := New(opts)
	defer func() {
		err := Close(logger)
		if err != nil {
			t.Errorf("Error closing logger: %v", err)
		}
	}()

	// Log messages at different levels
	logger.Debug("debug only in file")
	logger.Info("info only in file")
	logger.Warn("warn in both")
	logger.Error("error in both")

	// Give time for file writes
	time.Sleep(100 * time.Millisecond)

	// Check file contains all messages
	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	fileContent := string(content)

	if !strings.Contains(fileContent, "debug only in file") {
		t.Error("File should contain debug message")
	}
	if !strings.Contains(fileContent, "info only in file") {
		t.Error("File should contain info message")
	}
	if !strings.Contains(fileContent, "warn in both") {
		t.Error("File should contain warn message")
	}
	if !strings.Contains(fileContent, "error in both") {
		t.Error("File should contain error message")
	}
}

func TestRedactingHandler(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "redacted.log")

	opts := Options{
		Env:       "prod",
		FileLevel: "debug",
		File:      logFile,
		App:       "test-app",
		Console:   io.Discard,
	}

	logger := New(opts)
	defer func() {
		err := Close(logger)
		if err != nil {
			t.Errorf("Error closing logger: %v", err)
		}
	}()

	// Log sensitive data
	logger.Info("update user",
		slog.String("email", "alice@example.com"),
		slog.String("dsn", "file:data/users.db?mode=rw"),
		slog.String("user", "alice"),
		slog.String("sql", "UPDATE users SET email = ? WHERE id = ?"),
	)

	time.Sleep(100 * time.Millisecond)

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	fileContent := string(content)

	if strings.Contains(fileContent, "alice@example.com") {
		t.Error("Email should be redacted")
	}
	if strings.Contains(fileContent, "data/users.db") {
		t.Error("DSN should be redacted")
	}
	if !strings.Contains(fileContent, "[REDACTED]") {
		t.Error("Should contain redacted placeholder")
	}
	if !strings.Contains(fileContent, `"user":"alice"`) {
		t.Error("Non-sensitive data should not be redacted")
	}
	if !strings.Contains(fileContent, "UPDATE users SET email = ? WHERE id = ?") {
		t.Error("Query text should not be redacted")
	}
}

func TestRedactingHandler_EmailValues(t *testing.T) {
	var buf bytes.Buffer
	h := NewRedactingHandler(slog.NewTextHandler(&buf, nil), SensitiveKeys)
	logger := slog.New(h)

	logger.Info("row", slog.String("contact", "bob@x.com"), slog.Int("age", 45))
	logger.Info("grouped", slog.Group("user", slog.String("mail", "carol@x.com"), slog.String("name", "Carol")))
	logger.With(slog.String("password", "hunter2")).Info("with attrs")

	out := buf.String()
	for _, secret := range []string{"bob@x.com", "carol@x.com", "hunter2"} {
		if strings.Contains(out, secret) {
			t.Errorf("%q should be redacted in %q", secret, out)
		}
	}
	if !strings.Contains(out, "age=45") {
		t.Error("Integer attributes should pass through")
	}
	if !strings.Contains(out, "user.name=Carol") {
		t.Error("Group members should keep non-sensitive values")
	}
}

func TestLooksLikeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@x.com", true},
		{"first.last@sub.example.org", true},
		{"not an email", false},
		{"SELECT * FROM users WHERE email = 'a@x.com'", false},
		{"user@localhost", false},
	}

	for _, tt := range tests {
		if got := looksLikeEmail(tt.in); got != tt.want {
			t.Errorf("looksLikeEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	h1 := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})

	multi := NewMultiHandler(h1, h2)

	ctx := context.Background()

	// Test Enabled
	if !multi.Enabled(ctx, slog.LevelInfo) {
		t.Error("Should be enabled for info level")
	}
	if !multi.Enabled(ctx, slog.LevelWarn) {
		t.Error("Should be enabled for warn level")
	}

	// Test Handle (should not panic)
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)
	err := multi.Handle(ctx, record)
	if err != nil {
		t.Errorf("Handle should not return error: %v", err)
	}

	// Test WithAttrs
	withAttrs := multi.WithAttrs([]slog.Attr{slog.String("key", "value")})
	if withAttrs == nil {
		t.Error("WithAttrs should not return nil")
	}

	// Test WithGroup
	withGroup := multi.WithGroup("group")
	if withGroup == nil {
		t.Error("WithGroup should not return nil")
	}
}
