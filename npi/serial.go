package npi

import (
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

// DefaultBaudRate is the SNP UART default.
const DefaultBaudRate = 115200

// NewSerial opens the UART at path and runs the NPI framing over it.
func NewSerial(path string, baud uint, l Logger, onErr func(error)) (Transport, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}

	opts := serial.OpenOptions{
		PortName: path,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,

		// force these, reads must come back so Close is noticed
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}

	sp, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %s", path)
	}

	// dump whatever the NP sent before we were listening
	<-time.After(waitOpenDelay)
	b := make([]byte, 2048)
	if _, err := sp.Read(b); err != nil && err != io.EOF {
		sp.Close()
		return nil, errors.Wrap(err, "can't flush uart")
	}

	return NewPort(&uart{sp}, l, onErr), nil
}

// uart hides the io.EOF a termios read returns when the inter
// character timeout expires with no data.
type uart struct {
	io.ReadWriteCloser
}

func (u *uart) Read(b []byte) (int, error) {
	n, err := u.ReadWriteCloser.Read(b)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}
