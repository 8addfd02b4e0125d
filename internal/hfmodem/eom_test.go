package hfmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEOMScannerDetectsAppendedPattern(t *testing.T) {
	data := []byte{1, 0, 1, 1, 0, 0, 1, 0}
	stream := AppendEOM(data)

	s := NewEOMScanner()
	var got []byte
	for _, b := range stream {
		d, detected, _ := s.Scan([]byte{b})
		got = append(got, d...)
		if detected {
			break
		}
	}
	assert.True(t, s.Detected())
	assert.Equal(t, data, got)
}

func TestEOMScannerStickyAfterMatch(t *testing.T) {
	stream := AppendEOM([]byte{1, 1, 1})
	s := NewEOMScanner()
	s.Scan(stream)
	require := assert.New(t)
	require.True(s.Detected())

	more, detected, _ := s.Scan([]byte{0, 1, 0, 1})
	require.True(detected)
	require.Empty(more)
}

func TestEOMScannerNoFalsePositiveOnPlainData(t *testing.T) {
	s := NewEOMScanner()
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i % 2)
	}
	_, detected, _ := s.Scan(data)
	assert.False(t, detected)
}
