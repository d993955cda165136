// Package logx is a thin, colorized wrapper around the standard
// library's log.Logger: plain log.Println-style output, with level
// prefixes colored via github.com/fatih/color rather than a
// hand-rolled ANSI scheme.
package logx

import (
	"io"
	"log"

	"github.com/fatih/color"
)

var (
	infoPrefix  = color.CyanString("INFO")
	warnPrefix  = color.YellowString("WARN")
	errorPrefix = color.New(color.FgRed, color.Bold).Sprint("ERROR")
)

// Logger prints leveled, colorized lines through a standard
// log.Logger. Satisfies arbitration.Logger.
type Logger struct {
	std *log.Logger
}

// New builds a Logger writing to out with the standard date/time
// prefix.
func New(out io.Writer) *Logger {
	return &Logger{std: log.New(out, "", log.LstdFlags)}
}

// Printf logs at info level. It is the method arbitration.Loop calls.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.std.Printf(infoPrefix+" "+format, args...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf(warnPrefix+" "+format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf(errorPrefix+" "+format, args...)
}
