package sliceops

import (
	"bytes"
	"testing"
)

func TestSwapBuf(t *testing.T) {
	in := []byte{1, 2, 3, 4, 5, 6}
	out := SwapBuf(in)
	if !bytes.Equal(out, []byte{6, 5, 4, 3, 2, 1}) {
		t.Fatalf("swap: got %v", out)
	}
	if in[0] != 1 {
		t.Fatalf("input modified: %v", in)
	}
}

func TestClone(t *testing.T) {
	if Clone(nil) != nil {
		t.Fatal("clone of nil should be nil")
	}

	in := []byte{0xaa, 0xbb}
	out := Clone(in)
	out[0] = 0
	if in[0] != 0xaa {
		t.Fatal("clone shares memory with input")
	}
}
