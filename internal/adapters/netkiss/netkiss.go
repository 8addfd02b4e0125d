// Package netkiss is a KISS-over-TCP host adapter, advertised on the
// local network via DNS-SD, the same pure-Go brutella/dnssd package the
// teacher's dns_sd.go announces its KISS TCP service with (§3, §4
// "KISS-over-TCP + DNS-SD host adapter").
package netkiss

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/brutella/dnssd"

	"github.com/w1ale/hfmodem/internal/hfmodem/dte"
	"github.com/w1ale/hfmodem/internal/hfmodem/modem"
)

const serviceType = "_kiss-tnc._tcp"

// Server listens for KISS-over-TCP clients and drives a Modem's
// arm_tx/tx_data/subscribe surface on their behalf.
type Server struct {
	modem *modem.Modem
	ln    net.Listener
	name  string
	resp  dnssd.Responder
}

// Listen opens a TCP listener on port and, if advertise is true,
// registers a DNS-SD service announcement for it.
func Listen(m *modem.Modem, port int, name string, advertise bool) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("adapters/netkiss: listen: %w", err)
	}
	s := &Server{modem: m, ln: ln, name: name}

	if advertise {
		cfg := dnssd.Config{Name: name, Type: serviceType, Port: port}
		svc, err := dnssd.NewService(cfg)
		if err != nil {
			return nil, fmt.Errorf("adapters/netkiss: dnssd service: %w", err)
		}
		resp, err := dnssd.NewResponder()
		if err != nil {
			return nil, fmt.Errorf("adapters/netkiss: dnssd responder: %w", err)
		}
		if _, err := resp.Add(svc); err != nil {
			return nil, fmt.Errorf("adapters/netkiss: dnssd add: %w", err)
		}
		s.resp = resp
		go func() { _ = resp.Respond(context.Background()) }()
	}
	return s, nil
}

// Serve accepts client connections until the listener is closed,
// handling each one in its own goroutine with the KISS framing.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	sink := s.modem.Subscribe(dte.KindAll)
	go func() {
		w := bufio.NewWriter(conn)
		for ev := range sink.Events() {
			if ev.Name != "rx_data" {
				continue
			}
			if data, ok := ev.Data.([]byte); ok {
				frame := encodeKISS(data)
				_, _ = w.Write(frame)
				_ = w.Flush()
			}
		}
	}()

	r := bufio.NewReader(conn)
	for {
		frame, err := readKISSFrame(r)
		if err != nil {
			return
		}
		if len(frame) == 0 {
			continue
		}
		if err := s.modem.ArmTX(); err != nil {
			continue
		}
		if err := s.modem.TxData(frame, dte.FirstAndLast); err != nil {
			continue
		}
		_ = s.modem.StartTX()
	}
}

const (
	kissFEND = 0xC0
	kissFESC = 0xDB
	kissTFEND = 0xDC
	kissTFESC = 0xDD
)

func encodeKISS(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, kissFEND, 0x00)
	for _, b := range payload {
		switch b {
		case kissFEND:
			out = append(out, kissFESC, kissTFEND)
		case kissFESC:
			out = append(out, kissFESC, kissTFESC)
		default:
			out = append(out, b)
		}
	}
	out = append(out, kissFEND)
	return out
}

func readKISSFrame(r *bufio.Reader) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == kissFEND {
			break
		}
	}
	var out []byte
	escaped := false
	started := false
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch {
		case b == kissFEND:
			if started {
				if len(out) > 0 {
					out = out[1:] // drop port/command byte
				}
				return out, nil
			}
			continue
		case b == kissFESC:
			escaped = true
			started = true
			continue
		case escaped && b == kissTFEND:
			out = append(out, kissFEND)
			escaped = false
		case escaped && b == kissTFESC:
			out = append(out, kissFESC)
			escaped = false
		default:
			out = append(out, b)
			started = true
		}
	}
}

// Close shuts down the listener.
func (s *Server) Close() error { return s.ln.Close() }
