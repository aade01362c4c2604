package ucx

import (
	"context"
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is the u-connectXpress factory setting.
const DefaultBaudRate = 115200

// SerialDialer opens a local serial port with 8N1 framing.
type SerialDialer struct {
	// PortName is the device path, "/dev/ttyUSB0" or "COM3". Required.
	PortName string
	// BaudRate defaults to DefaultBaudRate when zero.
	BaudRate int
}

// Dial opens the port in non-blocking mode: the read timeout is zero so
// engine polls return immediately with whatever the driver has buffered.
func (d *SerialDialer) Dial(ctx context.Context) (Port, error) {
	if d.PortName == "" {
		return nil, fmt.Errorf("%w: serial port name required", ErrInvalidConfig)
	}
	baud := d.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.PortName, err)
	}
	if err := port.SetReadTimeout(0); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", d.PortName, err)
	}
	return &serialPort{port: port}, nil
}

// serialPort adapts go.bug.st/serial to the Port contract. The library
// exposes no readable-byte count, so Available reports the contract's legal
// lower bound of zero and the engine discovers data by reading.
type serialPort struct {
	port serial.Port
}

func (p *serialPort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *serialPort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *serialPort) Available() int              { return 0 }
func (p *serialPort) Close() error                { return p.port.Close() }
