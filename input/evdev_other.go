// +build !linux

package input

import "github.com/pkg/errors"

// Key is only available on linux.
type Key struct {
	Manual
}

func OpenKey(path string, code uint16) (*Key, error) {
	return nil, errors.New("input devices are not supported on this platform")
}

func (k *Key) Close() error {
	return nil
}
