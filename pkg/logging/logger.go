package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	// Append the data to our internal buffer.
	w.buffer = append(w.buffer, buffer...)

	// Process all lines in the buffer, tracking the number of bytes that we
	// process.
	var processed int
	remaining := w.buffer
	for {
		// Find the index of the next newline character.
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}

		// Process the line.
		w.callback(string(trimCarriageReturn(remaining[:index])))

		// Update the number of bytes that we've processed.
		processed += index + 1

		// Update the remaining slice.
		remaining = remaining[index+1:]
	}

	// If we managed to process bytes, then truncate our internal buffer.
	if processed > 0 {
		// Compute the number of leftover bytes.
		leftover := len(w.buffer) - processed

		// If there are leftover bytes, then shift them to the front of the
		// buffer.
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}

		// Truncate the buffer.
		w.buffer = w.buffer[:leftover]
	}

	// Done.
	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It is designed to use the
// standard logger provided by the log package, so it respects any flags set
// for that logger. It is safe for concurrent usage. Each logger carries a
// level; messages above that level are dropped.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the maximum level this logger (and its subloggers) emits.
	level Level
	// std is the standard logger to which output is ultimately written.
	std *log.Logger
}

// RootLogger is the root logger from which all other loggers derive.
var RootLogger = NewLogger(LevelInfo, os.Stderr)

// NewLogger creates a new root logger at the specified level, writing to
// output.
func NewLogger(level Level, output io.Writer) *Logger {
	return &Logger{
		level: level,
		std:   log.New(output, "", log.LstdFlags),
	}
}

// Sublogger creates a new sublogger with the specified name, inheriting the
// parent's level and output destination.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		prefix: prefix,
		level:  l.level,
		std:    l.std,
	}
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, level Level, line string) {
	// Drop the message if it's below the logger's configured level.
	if l.level < level {
		return
	}

	// Add a prefix if necessary.
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}

	// Log.
	l.std.Output(calldepth, line)
}

// Print logs information at LevelInfo with semantics equivalent to fmt.Print.
func (l *Logger) Print(v ...interface{}) {
	if l != nil {
		l.output(3, LevelInfo, fmt.Sprint(v...))
	}
}

// Printf logs information at LevelInfo with semantics equivalent to
// fmt.Printf.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.output(3, LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Println logs information at LevelInfo with semantics equivalent to
// fmt.Println.
func (l *Logger) Println(v ...interface{}) {
	if l != nil {
		l.output(3, LevelInfo, fmt.Sprintln(v...))
	}
}

// Info logs information at LevelInfo with semantics equivalent to fmt.Print.
func (l *Logger) Info(v ...interface{}) {
	if l != nil {
		l.output(3, LevelInfo, fmt.Sprint(v...))
	}
}

// Infof logs information at LevelInfo with semantics equivalent to
// fmt.Printf.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l != nil {
		l.output(3, LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Writer returns an io.Writer that writes lines using Println.
func (l *Logger) Writer() io.Writer {
	// If the logger is nil, then we can just discard input since it won't be
	// logged anyway. This saves us the overhead of scanning lines.
	if l == nil {
		return io.Discard
	}

	// Create the writer.
	return &writer{
		callback: func(s string) {
			l.Println(s)
		},
	}
}

// Debug logs information at LevelDebug with semantics equivalent to
// fmt.Print.
func (l *Logger) Debug(v ...interface{}) {
	if l != nil {
		l.output(3, LevelDebug, fmt.Sprint(v...))
	}
}

// Debugf logs information at LevelDebug with semantics equivalent to
// fmt.Printf.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil {
		l.output(3, LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Debugln logs information at LevelDebug with semantics equivalent to
// fmt.Println.
func (l *Logger) Debugln(v ...interface{}) {
	if l != nil {
		l.output(3, LevelDebug, fmt.Sprintln(v...))
	}
}

// DebugWriter returns an io.Writer that writes lines using Debugln.
func (l *Logger) DebugWriter() io.Writer {
	if l == nil {
		return io.Discard
	}

	return &writer{
		callback: func(s string) {
			l.Debugln(s)
		},
	}
}

// Warn logs error information at LevelWarn with a warning prefix and color.
func (l *Logger) Warn(err error) {
	if l != nil {
		l.output(3, LevelWarn, color.YellowString("Warning: %v", err))
	}
}

// Warnf logs a formatted message at LevelWarn with a warning prefix and
// color.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l != nil {
		l.output(3, LevelWarn, color.YellowString("Warning: "+format, v...))
	}
}

// Error logs error information at LevelError with an error prefix and color.
func (l *Logger) Error(err error) {
	if l != nil {
		l.output(3, LevelError, color.RedString("Error: %v", err))
	}
}

// Errorf logs a formatted message at LevelError with an error prefix and
// color.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l != nil {
		l.output(3, LevelError, color.RedString("Error: "+format, v...))
	}
}
