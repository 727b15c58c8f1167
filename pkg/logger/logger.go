package logger

import (
	"io"
	"log/slog"
)

// Logger receives per-file actions and phase progress from the engines.
type Logger interface {
	PhaseStart(phase string, totalItems int)
	PhaseComplete(phase string, processedItems int)
	Remove(path string)
	Copy(src, dst string)
	Move(src, dst string)
	Error(operation, path string, err error)
	Debug(msg string, args ...any)
}

// SyncLogger writes structured records through slog.
type SyncLogger struct {
	Log      *slog.Logger
	IsDryRun bool
	IsQuiet  bool
}

// New builds a SyncLogger with a text handler on w.
func New(w io.Writer, dryRun, quiet, verbose bool) *SyncLogger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelWarn
	case verbose:
		level = slog.LevelDebug
	}

	return &SyncLogger{
		Log:      slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
		IsDryRun: dryRun,
		IsQuiet:  quiet,
	}
}

func (l *SyncLogger) action(name string) string {
	if l.IsDryRun {
		return "(dryrun) " + name
	}
	return name
}

func (l *SyncLogger) PhaseStart(phase string, totalItems int) {
	l.Log.Info(phase+" - started", slog.Int("items", totalItems))
}

func (l *SyncLogger) PhaseComplete(phase string, processedItems int) {
	l.Log.Info(phase+" - finished", slog.Int("processed", processedItems))
}

func (l *SyncLogger) Remove(path string) {
	l.Log.Info(l.action("remove"), slog.String("path", path))
}

func (l *SyncLogger) Copy(src, dst string) {
	l.Log.Info(l.action("copy"), slog.String("src", src), slog.String("dst", dst))
}

func (l *SyncLogger) Move(src, dst string) {
	l.Log.Info(l.action("move"), slog.String("src", src), slog.String("dst", dst))
}

func (l *SyncLogger) Error(operation, path string, err error) {
	l.Log.Error(operation+" failed", slog.String("op", operation), slog.String("path", path), slog.String("error", err.Error()))
}

func (l *SyncLogger) Debug(msg string, args ...any) {
	l.Log.Debug(msg, args...)
}

type NullLogger struct{}

func (l *NullLogger) PhaseStart(phase string, totalItems int) {}

func (l *NullLogger) PhaseComplete(phase string, processedItems int) {}

func (l *NullLogger) Remove(path string) {}

func (l *NullLogger) Copy(src, dst string) {}

func (l *NullLogger) Move(src, dst string) {}

func (l *NullLogger) Error(operation, path string, err error) {}

func (l *NullLogger) Debug(msg string, args ...any) {}
