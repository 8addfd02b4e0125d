// Package audio backs internal/hfmodem/phy.AudioIO with a real sound
// card via PortAudio (§3 DOMAIN STACK).
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device is a PortAudio-backed duplex audio stream.
type Device struct {
	stream     *portaudio.Stream
	sampleRate int
	in, out    []int16
	captureCh  chan []int16
}

// Open initializes PortAudio and opens the default duplex stream at
// sampleRate with framesPerBuffer-sized callbacks.
func Open(sampleRate, framesPerBuffer int) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("adapters/audio: portaudio init: %w", err)
	}
	d := &Device{
		sampleRate: sampleRate,
		in:         make([]int16, framesPerBuffer),
		out:        make([]int16, framesPerBuffer),
		captureCh:  make(chan []int16, 16),
	}
	stream, err := portaudio.OpenDefaultStream(1, 1, float64(sampleRate), framesPerBuffer, d.in, d.out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("adapters/audio: open stream: %w", err)
	}
	d.stream = stream
	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("adapters/audio: start stream: %w", err)
	}
	return d, nil
}

// Play copies samples into the output buffer and writes one period to
// the stream; callers hand it framesPerBuffer-sized chunks.
func (d *Device) Play(samples []int16) error {
	n := copy(d.out, samples)
	for i := n; i < len(d.out); i++ {
		d.out[i] = 0
	}
	return d.stream.Write()
}

// Capture returns a channel of captured sample batches. A background
// reader is not started here; the caller drives reads by pulling from
// the channel after calling pump, matching the single-writer ownership
// model the rest of the modem uses (§5 "Ownership").
func (d *Device) Capture() (<-chan []int16, error) {
	return d.captureCh, nil
}

// Pump reads one buffer's worth of captured audio and forwards it to
// the Capture channel; the owning RX task calls this in its own loop
// rather than PortAudio driving a callback goroutine.
func (d *Device) Pump() error {
	if err := d.stream.Read(); err != nil {
		return fmt.Errorf("adapters/audio: read: %w", err)
	}
	batch := make([]int16, len(d.in))
	copy(batch, d.in)
	select {
	case d.captureCh <- batch:
	default:
	}
	return nil
}

// SampleRate returns the configured stream sample rate.
func (d *Device) SampleRate() int { return d.sampleRate }

// Close stops the stream and terminates PortAudio.
func (d *Device) Close() error {
	close(d.captureCh)
	if d.stream != nil {
		_ = d.stream.Stop()
		_ = d.stream.Close()
	}
	return portaudio.Terminate()
}
