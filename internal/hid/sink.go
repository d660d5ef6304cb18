package hid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrSinkBusy is returned when the transport cannot take a report right now.
var ErrSinkBusy = errors.New("keyboard sink busy")

// Sink accepts keyboard reports one at a time.
type Sink interface {
	WriteReport(ctx context.Context, r Report) error
}

// DeviceSink writes boot-protocol reports to a HID gadget node such as /dev/hidg0.
type DeviceSink struct {
	w io.Writer
}

// NewDeviceSink wraps w.
func NewDeviceSink(w io.Writer) *DeviceSink {
	return &DeviceSink{w: w}
}

// OpenDevice opens a HID gadget node for writing.
func OpenDevice(path string) (*DeviceSink, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open keyboard device: %w", err)
	}
	return NewDeviceSink(f), f, nil
}

// WriteReport implements Sink.
func (d *DeviceSink) WriteReport(ctx context.Context, r Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := r.Bytes()
	n, err := d.w.Write(buf[:])
	if err != nil {
		return err
	}
	if n != ReportSize {
		return fmt.Errorf("%w: short write of %d bytes", ErrSinkBusy, n)
	}
	return nil
}

// LogSink logs reports instead of sending them anywhere.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that logs at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// WriteReport implements Sink.
func (l *LogSink) WriteReport(ctx context.Context, r Report) error {
	buf := r.Bytes()
	l.logger.InfoContext(ctx, "keyboard report", "keys", r.String(), "bytes", fmt.Sprintf("% x", buf[:]))
	return nil
}

// RunWriter drains reports into sink until the channel closes or ctx ends.
// Failed writes are logged and the report is dropped.
func RunWriter(ctx context.Context, reports <-chan Report, sink Sink, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-reports:
			if !ok {
				return nil
			}
			if err := sink.WriteReport(ctx, r); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("dropping keyboard report", "keys", r.String(), "err", err)
				continue
			}
			logger.Debug("sent keyboard report", "keys", r.String())
		}
	}
}
