package smp

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"

	"github.com/aead/cmac"
	"github.com/pkg/errors"
	"github.com/rigado/snp/sliceops"
)

// NonceLen is the length of a pairing random value.
const NonceLen = 16

// NumCmpModulus bounds the displayed comparison value to six digits.
const NumCmpModulus = 1000000

// Nonce returns a fresh pairing random value.
func Nonce() ([]byte, error) {
	b := make([]byte, NonceLen)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(err, "can't read random")
	}
	return b, nil
}

// F4 is the confirm value generation function.
//
//	f4(U, V, X, Z) = AES-CMAC X (U || V || Z)
func F4(u, v, x []byte, z uint8) ([]byte, error) {
	if len(u) != 32 || len(v) != 32 || len(x) != NonceLen {
		return nil, errors.New("f4: length error")
	}

	m := []byte{z}
	m = append(m, v...)
	m = append(m, u...)

	return aesCMAC(x, m)
}

// G2 is the numeric comparison value generation function.
//
//	g2(U, V, X, Y) = AES-CMAC X (U || V || Y) mod 2^32
//
// The result is already reduced to six digits.
func G2(u, v, x, y []byte) (uint32, error) {
	if len(u) != 32 || len(v) != 32 || len(x) != NonceLen || len(y) != NonceLen {
		return 0, errors.New("g2: length error")
	}

	m := sliceops.Clone(y)
	m = append(m, v...)
	m = append(m, u...)

	h, err := aesCMAC(x, m)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(h[:4]) % NumCmpModulus, nil
}

// CheckConfirm verifies a responder's confirm value Cb = f4(PKbx, PKax, Nb, 0).
func CheckConfirm(pkbx, pkax, nb, cb []byte) error {
	calc, err := F4(pkbx, pkax, nb, 0)
	if err != nil {
		return err
	}
	if !bytes.Equal(calc, cb) {
		return errors.Errorf("confirm mismatch, exp %v got %v",
			hex.EncodeToString(cb), hex.EncodeToString(calc))
	}
	return nil
}

// NumericComparison returns the value both sides display,
// g2(PKax, PKbx, Na, Nb).
func NumericComparison(pkax, pkbx, na, nb []byte) (uint32, error) {
	return G2(pkax, pkbx, na, nb)
}

func aesCMAC(key, msg []byte) ([]byte, error) {
	mCipher, err := aes.NewCipher(sliceops.SwapBuf(key))
	if err != nil {
		return nil, err
	}

	mMac, err := cmac.New(mCipher)
	if err != nil {
		return nil, err
	}
	mMac.Write(sliceops.SwapBuf(msg))

	return sliceops.SwapBuf(mMac.Sum(nil)), nil
}
