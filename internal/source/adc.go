package source

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// mcp3008 reads the 10-bit MCP3008 ADC over SPI. One Tx per channel
// per scan; at 1 MHz that is comfortably inside the 1 kHz cycle budget.
type mcp3008 struct {
	port spi.PortCloser
	conn spi.Conn
}

func openMCP3008(dev string) (*mcp3008, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialising periph host: %w", err)
	}

	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("%w: opening SPI port %q: %w", ErrHardwareUnavailable, dev, err)
	}

	conn, err := port.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: configuring SPI: %w", ErrHardwareUnavailable, err)
	}

	return &mcp3008{port: port, conn: conn}, nil
}

// read performs a single-ended conversion on one of the eight input
// channels and returns the 10-bit sample.
func (a *mcp3008) read(channel int) (uint16, error) {
	// Start bit, single-ended mode + channel, then one clock byte to
	// shift the conversion out.
	tx := [3]byte{0x01, byte(0x08|channel) << 4, 0x00}
	var rx [3]byte
	if err := a.conn.Tx(tx[:], rx[:]); err != nil {
		return 0, fmt.Errorf("adc channel %d: %w", channel, err)
	}
	return uint16(rx[1]&0x03)<<8 | uint16(rx[2]), nil
}

func (a *mcp3008) close() error {
	return a.port.Close()
}
