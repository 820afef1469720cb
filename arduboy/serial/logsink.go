// Package serial turns the raw bytes a guest writes to its USART/USB-serial
// registers into readable log lines, for the --serial CLI flag.
package serial

import "log/slog"

// LogSink buffers bytes drained from a system's serial output queue until a
// newline, then logs the completed line. Handy for games that use
// Serial.print for debug output.
type LogSink struct {
	logger *slog.Logger
	line   []byte
}

// NewLogSink creates a logging serial sink writing to the default logger.
func NewLogSink() *LogSink {
	return &LogSink{logger: slog.Default()}
}

// Feed appends newly drained serial bytes (from System.TakeSerialOutput),
// logging each completed line as it's terminated by '\n' or '\r'.
func (s *LogSink) Feed(bytes []byte) {
	for _, b := range bytes {
		if b == '\n' || b == '\r' {
			s.flush()
			continue
		}
		s.line = append(s.line, b)
	}
}

// Flush logs any partial line still buffered, e.g. at program exit.
func (s *LogSink) Flush() {
	s.flush()
}

func (s *LogSink) flush() {
	if len(s.line) == 0 {
		return
	}
	s.logger.Info("serial", "line", string(s.line))
	s.line = s.line[:0]
}
