package hfmodem

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// CaptureWriter records a receive session's raw IQ samples to disk under
// a strftime-formatted filename, the same naming convention the
// teacher's tq.go uses for timestamped output files. It is an opt-in
// diagnostic feature (§4 "offline replay"), toggled by CaptureConfig.
type CaptureWriter struct {
	f *os.File
}

// NewCaptureWriter opens a new capture file under cfg.Dir, formatting
// cfg.Pattern with strftime and substituting "%{rig}" with rig before
// the strftime pass (strftime has no named-field support of its own).
func NewCaptureWriter(cfg CaptureConfig, rig string) (*CaptureWriter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	pattern := strings.ReplaceAll(cfg.Pattern, "%{rig}", rig)
	name, err := strftime.Format(pattern, time.Now())
	if err != nil {
		return nil, fmt.Errorf("hfmodem: capture pattern %q: %w", cfg.Pattern, err)
	}
	path := filepath.Join(cfg.Dir, name)
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("hfmodem: capture dir %s: %w", cfg.Dir, err)
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("hfmodem: creating capture file %s: %w", path, err)
	}
	return &CaptureWriter{f: fh}, nil
}

// WriteIQ appends a block of complex samples as interleaved
// little-endian float32 I/Q pairs.
func (c *CaptureWriter) WriteIQ(samples []complex128) error {
	if c == nil || c.f == nil {
		return nil
	}
	buf := make([]byte, 8*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[8*i:], math.Float32bits(float32(real(s))))
		binary.LittleEndian.PutUint32(buf[8*i+4:], math.Float32bits(float32(imag(s))))
	}
	_, err := c.f.Write(buf)
	return err
}

// Close flushes and closes the capture file. Safe to call on a nil
// CaptureWriter (i.e. capture disabled).
func (c *CaptureWriter) Close() error {
	if c == nil || c.f == nil {
		return nil
	}
	return c.f.Close()
}
