// Package smp holds the LE Secure Connections functions needed to derive
// and check a numeric comparison value. Keys and values are little endian,
// as they appear on air.
package smp

import (
	"crypto"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/pkg/errors"
	"github.com/rigado/snp/sliceops"
	"github.com/wsddn/go-ecdh"
)

// PublicKeyLen is the length of an X||Y public key.
const PublicKeyLen = 64

// Keys is a P-256 key pair.
type Keys struct {
	public  crypto.PublicKey
	private crypto.PrivateKey
}

func curve() ecdh.ECDH {
	return ecdh.NewEllipticECDH(elliptic.P256())
}

func GenerateKeys() (*Keys, error) {
	var err error
	kp := Keys{}

	kp.private, kp.public, err = curve().GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "can't generate keys")
	}
	return &kp, nil
}

// Public returns the public key as X||Y.
func (k *Keys) Public() []byte {
	return marshalXY(k.public)
}

// PublicX returns the X coordinate of the public key.
func (k *Keys) PublicX() []byte {
	return marshalXY(k.public)[:32]
}

// Secret computes the DHKey shared with the peer's X||Y public key.
func (k *Keys) Secret(peer []byte) ([]byte, error) {
	pub, err := unmarshalXY(peer)
	if err != nil {
		return nil, err
	}

	b, err := curve().GenerateSharedSecret(k.private, pub)
	if err != nil {
		return nil, errors.Wrap(err, "can't generate secret")
	}
	return sliceops.SwapBuf(b), nil
}

func unmarshalXY(b []byte) (crypto.PublicKey, error) {
	if len(b) != PublicKeyLen {
		return nil, errors.Errorf("public key length %d", len(b))
	}

	// uncompressed point header, big endian coordinates
	r := append([]byte{0x04}, sliceops.SwapBuf(b[:32])...)
	r = append(r, sliceops.SwapBuf(b[32:])...)

	pk, ok := curve().Unmarshal(r)
	if !ok {
		return nil, errors.New("public key is not on the curve")
	}
	return pk, nil
}

func marshalXY(k crypto.PublicKey) []byte {
	ba := curve().Marshal(k)
	ba = ba[1:] //remove header

	x := sliceops.SwapBuf(ba[:32])
	y := sliceops.SwapBuf(ba[32:])
	return append(x, y...)
}
