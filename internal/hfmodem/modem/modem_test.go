package modem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w1ale/hfmodem/internal/hfmodem"
	"github.com/w1ale/hfmodem/internal/hfmodem/dte"
	"github.com/w1ale/hfmodem/internal/hfmodem/phy"
)

type fakeRig struct {
	ptt   bool
	freq  uint64
	closed bool
}

func (r *fakeRig) SetPTT(on bool) error       { r.ptt = on; return nil }
func (r *fakeRig) SetFrequency(hz uint64) error { r.freq = hz; return nil }
func (r *fakeRig) Close() error               { r.closed = true; return nil }

type fakeAudio struct {
	closed bool
}

func (a *fakeAudio) Play(samples []int16) error        { return nil }
func (a *fakeAudio) Capture() (<-chan []int16, error)   { return make(chan []int16), nil }
func (a *fakeAudio) SampleRate() int                    { return 8000 }
func (a *fakeAudio) Close() error                       { a.closed = true; return nil }

func newTestModem(t *testing.T) (*Modem, *fakeRig, *fakeAudio) {
	t.Helper()
	cfg := hfmodem.DefaultConfig()
	cfg.SelfAddr = 0x1234
	rig := &fakeRig{}
	audio := &fakeAudio{}
	m, err := New("testrig", cfg, Deps{Rig: rig, Audio: audio})
	require.NoError(t, err)
	return m, rig, audio
}

func TestModemArmStartTxDataFullDuplexRoundTrip(t *testing.T) {
	m, rig, _ := newTestModem(t)

	require.NoError(t, m.ArmTX())
	require.NoError(t, m.TxData([]byte("hello"), dte.FirstAndLast))
	require.NoError(t, m.StartTX())
	assert.True(t, rig.ptt)
	assert.Equal(t, dte.Started, m.TxStatus())

	m.AbortTX()
	assert.False(t, rig.ptt)
}

func TestModemSetTxParamsAndStatus(t *testing.T) {
	m, _, _ := newTestModem(t)
	m.SetTxParams(TxParams{Waveform: 3, BWKHz: 6, Interleaver: hfmodem.Short, ConstraintLength: hfmodem.K9})
	assert.Equal(t, dte.Flushed, m.TxStatus())
	assert.Equal(t, dte.NoCarrier, m.RxStatus())
}

func TestModemSubscribeReceivesTxStatusEvents(t *testing.T) {
	m, _, _ := newTestModem(t)
	sink := m.Subscribe(dte.KindTX)

	require.NoError(t, m.ArmTX())
	select {
	case ev := <-sink.Events():
		assert.Equal(t, dte.KindTX, ev.Kind)
		assert.Equal(t, "tx_status", ev.Name)
	default:
		t.Fatal("expected a tx_status event to be published")
	}
}

func TestModemLinkStartsIdleAndScans(t *testing.T) {
	m, _, _ := newTestModem(t)
	require.Equal(t, "Idle", m.Link().State().String())

	events, err := m.Link().Scan()
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestModemSetDuplexModeAffectsArbiter(t *testing.T) {
	m, _, _ := newTestModem(t)
	m.SetDuplexMode(dte.RxMaster)

	require.NoError(t, m.ArmTX())
	require.NoError(t, m.TxData([]byte("x"), dte.FirstAndLast))
	err := m.StartTX()
	assert.NoError(t, err)
}

func TestModemCloseReleasesRigAndAudio(t *testing.T) {
	m, rig, audio := newTestModem(t)
	require.NoError(t, m.Close())
	assert.True(t, rig.closed)
	assert.True(t, audio.closed)
}

// iqScale converts between the loopback fakes' int16 PCM and the
// complex128 IQ samples Tx110D/Rx110D operate on, standing in for a real
// modulator/demodulator's sample-rate conversion.
const iqScale = 8000

type loopbackMod struct{}

func (loopbackMod) Modulate(symbols []int, c phy.Constellation) ([]int16, error)      { return nil, nil }
func (loopbackMod) ModulateMixed(symbols []int, cs []phy.Constellation) ([]int16, error) { return nil, nil }

func (loopbackMod) ModulateIQ(iq []complex128) ([]int16, error) {
	out := make([]int16, 0, 2*len(iq))
	for _, s := range iq {
		out = append(out, int16(real(s)*iqScale), int16(imag(s)*iqScale))
	}
	return out, nil
}

func (loopbackMod) Flush() ([]int16, error) { return nil, nil }
func (loopbackMod) Reset()                  {}

type loopbackDemod struct{}

func (loopbackDemod) DemodulateIQ(samples []int16) ([]complex128, error) {
	out := make([]complex128, len(samples)/2)
	for i := range out {
		out[i] = complex(float64(samples[2*i])/iqScale, float64(samples[2*i+1])/iqScale)
	}
	return out, nil
}

func (loopbackDemod) DemodulateSymbols(samples []int16, c phy.Constellation) ([]int, error) {
	return nil, nil
}

func (loopbackDemod) Reset() {}

// loopbackAudio feeds Play's samples straight back out of Capture's
// channel, standing in for a sound card wired output-to-input.
type loopbackAudio struct{ ch chan []int16 }

func newLoopbackAudio() *loopbackAudio { return &loopbackAudio{ch: make(chan []int16, 4)} }

func (a *loopbackAudio) Play(samples []int16) error {
	cp := append([]int16(nil), samples...)
	a.ch <- cp
	return nil
}

func (a *loopbackAudio) Capture() (<-chan []int16, error) { return a.ch, nil }
func (a *loopbackAudio) SampleRate() int                  { return 8000 }
func (a *loopbackAudio) Close() error                     { close(a.ch); return nil }

func TestModemTransmitReceiveLoopback(t *testing.T) {
	cfg := hfmodem.DefaultConfig()
	audio := newLoopbackAudio()
	m, err := New("loopback", cfg, Deps{Mod: loopbackMod{}, Demod: loopbackDemod{}, Audio: audio})
	require.NoError(t, err)
	defer m.Close()

	sink := m.Subscribe(dte.KindRX)

	payload := []byte("hello over the air")
	require.NoError(t, m.ArmTX())
	require.NoError(t, m.TxData(payload, dte.FirstAndLast))
	require.NoError(t, m.StartTX())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.Name != "rx_data" {
				continue
			}
			data, ok := ev.Data.([]byte)
			require.True(t, ok)
			require.GreaterOrEqual(t, len(data), len(payload))
			assert.Equal(t, payload, data[:len(payload)])
			return
		case <-deadline:
			t.Fatal("timed out waiting for rx_data")
		}
	}
}
