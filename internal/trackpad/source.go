package trackpad

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Source produces raw trackpad reports. io.EOF means no more reports will come.
type Source interface {
	ReadReport(ctx context.Context) (Report, error)
}

// Event is either a report or a serial command line read in order with reports.
type Event struct {
	Report  Report
	Command []byte
}

// EventSource is a Source that interleaves serial command lines with its reports.
type EventSource interface {
	Source
	ReadEvent(ctx context.Context) (Event, error)
}

// StreamSource reads fixed-size reports from a byte stream such as a hidraw node.
// A blocked read is not interrupted by ctx.
type StreamSource struct {
	r io.Reader
}

// NewStreamSource wraps r.
func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{r: r}
}

// OpenDevice opens a device node producing trackpad reports.
func OpenDevice(path string) (*StreamSource, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trackpad device: %w", err)
	}
	return NewStreamSource(f), f, nil
}

// ReadReport implements Source.
func (s *StreamSource) ReadReport(ctx context.Context) (Report, error) {
	var r Report
	if err := ctx.Err(); err != nil {
		return r, err
	}
	if _, err := io.ReadFull(s.r, r[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return r, fmt.Errorf("%w: %v", ErrShortReport, err)
		}
		return r, err
	}
	return r, nil
}

// ChanSource reads reports pushed by another goroutine. Closing the channel ends the source.
type ChanSource struct {
	reports <-chan Report
}

// NewChanSource wraps reports.
func NewChanSource(reports <-chan Report) *ChanSource {
	return &ChanSource{reports: reports}
}

// ReadReport implements Source.
func (c *ChanSource) ReadReport(ctx context.Context) (Report, error) {
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case r, ok := <-c.reports:
		if !ok {
			return Report{}, io.EOF
		}
		return r, nil
	}
}
