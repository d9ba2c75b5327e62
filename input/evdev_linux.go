// +build linux

package input

import (
	"encoding/binary"
	"io"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	evKey          = 0x01
	keyPressed     = 1
	pollTimeout    = 1000
	unixPollErrors = int16(unix.POLLHUP | unix.POLLNVAL | unix.POLLERR)
	unixPollDataIn = int16(unix.POLLIN)
)

// size of struct input_event: a timeval, then type, code and value
var (
	timevalSize = int(unsafe.Sizeof(unix.Timeval{}))
	eventSize   = timevalSize + 8
)

// Key is a source fired by pressing one key on an evdev device, for example
// a GPIO button exposed through gpio-keys.
type Key struct {
	Manual

	fd   int
	code uint16

	done chan struct{}
	cmu  sync.Mutex
}

// OpenKey watches the evdev device at path for presses of the key code.
func OpenKey(path string, code uint16) (*Key, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %s", path)
	}

	k := &Key{fd: fd, code: code, done: make(chan struct{})}
	go k.readLoop()
	return k, nil
}

func (k *Key) readLoop() {
	b := make([]byte, eventSize*16)
	for {
		select {
		case <-k.done:
			return
		default:
		}

		n, err := k.read(b)
		if err != nil {
			return
		}
		for _, code := range pressedKeys(b[:n]) {
			if code == k.code {
				k.Trigger()
			}
		}
	}
}

func (k *Key) read(b []byte) (int, error) {
	// dont need to add unixPollErrors, they are always returned
	pfds := []unix.PollFd{{Fd: int32(k.fd), Events: unixPollDataIn}}
	unix.Poll(pfds, pollTimeout)
	evts := pfds[0].Revents

	switch {
	case evts&unixPollErrors != 0:
		return 0, io.EOF

	case evts&unixPollDataIn != 0:
		n, err := unix.Read(k.fd, b)
		return n, errors.Wrap(err, "can't read input device")

	default:
		// no data, read timeout
		return 0, nil
	}
}

// Close stops watching the device.
func (k *Key) Close() error {
	k.cmu.Lock()
	defer k.cmu.Unlock()

	select {
	case <-k.done:
		return nil
	default:
		close(k.done)
		k.Disarm()
		return errors.Wrap(unix.Close(k.fd), "can't close input device")
	}
}

// pressedKeys returns the codes of the key press events in b.
func pressedKeys(b []byte) []uint16 {
	var out []uint16
	for ; len(b) >= eventSize; b = b[eventSize:] {
		typ := binary.LittleEndian.Uint16(b[timevalSize:])
		code := binary.LittleEndian.Uint16(b[timevalSize+2:])
		value := int32(binary.LittleEndian.Uint32(b[timevalSize+4:]))
		if typ == evKey && value == keyPressed {
			out = append(out, code)
		}
	}
	return out
}
