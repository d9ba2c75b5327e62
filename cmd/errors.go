package cmd

import "github.com/pkg/errors"

// ErrShortBuffer is returned when Marshal is given less than Len bytes.
var ErrShortBuffer = errors.New("buffer too short for command")
