// Package trackpad reads position samples and cuts them into strokes.
package trackpad

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/verte-zerg/hexcaster/internal/model"
)

// ReportSize is the length of a trackpad report.
const ReportSize = 9

// ReportTypePosition is the discriminator of reports carrying a position.
const ReportTypePosition = 1

const (
	typeOffset = 2
	xOffset    = 5
	yOffset    = 7
)

// ErrShortReport is returned when a report is shorter than ReportSize.
var ErrShortReport = errors.New("short trackpad report")

// Report is one raw trackpad report.
type Report [ReportSize]byte

// ParseReport extracts the position from a report. ok is false for report
// types that carry no position.
func ParseReport(buf []byte) (p model.RawPoint, ok bool, err error) {
	if len(buf) < ReportSize {
		return model.RawPoint{}, false, fmt.Errorf("%w: %d bytes", ErrShortReport, len(buf))
	}
	if buf[typeOffset] != ReportTypePosition {
		return model.RawPoint{}, false, nil
	}
	return model.RawPoint{
		X: binary.LittleEndian.Uint16(buf[xOffset:]),
		Y: binary.LittleEndian.Uint16(buf[yOffset:]),
	}, true, nil
}

// PositionReport encodes p as a position report.
func PositionReport(p model.RawPoint) Report {
	var r Report
	r[typeOffset] = ReportTypePosition
	binary.LittleEndian.PutUint16(r[xOffset:], p.X)
	binary.LittleEndian.PutUint16(r[yOffset:], p.Y)
	return r
}
