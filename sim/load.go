package sim

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cbgeyer/sparc-ext-sim/encoding"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// Header is the 10-byte big-endian binary artifact header: target-ID,
// data-segment size, and text-segment size, in that order.
type Header struct {
	TargetID target.ID
	DataSize uint32
	TextSize uint32
}

// ReadHeader parses the fixed 10-byte header from the front of r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [10]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("sim: reading header: %w", err)
	}
	return Header{
		TargetID: target.ID(binary.BigEndian.Uint16(buf[0:2])),
		DataSize: binary.BigEndian.Uint32(buf[2:6]),
		TextSize: binary.BigEndian.Uint32(buf[6:10]),
	}, nil
}

// Load reads a full binary artifact from r, verifies its target-ID
// matches the target the caller selected,
// and returns a ready-to-run Machine.
func Load(r io.Reader, want encoding.Target) (*Machine, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if hdr.TargetID != want.ID() {
		return nil, newFault(FaultTargetMismatch, 0,
			fmt.Sprintf("binary built for target 0x%04x, simulator selected %s (0x%04x)",
				uint16(hdr.TargetID), want.Name(), uint16(want.ID())))
	}

	data := make([]byte, hdr.DataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("sim: reading data segment: %w", err)
	}
	text := make([]byte, hdr.TextSize)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, fmt.Errorf("sim: reading text segment: %w", err)
	}

	words := make([]uint32, hdr.TextSize/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(text[i*4:])
	}

	m := NewMachine(want, hdr.DataSize)
	m.Memory.LoadData(data)
	m.program = words
	return m, nil
}
