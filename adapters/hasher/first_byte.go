package hasher

import (
	"github.com/redderi/avatar-colour/domain"
)

// Per-channel multipliers for the first byte and the byte length.
var (
	byteWeights   = [3]uint64{22, 17, 67}
	lengthWeights = [3]uint64{4, 5, 6}
)

// New returns a domain.ColourHasher that mixes the first raw byte of the
// username with its byte length. Output for ASCII input is bit-identical to
// the native Android library the mobile client shipped with.
func New() domain.ColourHasher { return firstByteHasher{} }

type firstByteHasher struct{}

func (h firstByteHasher) Hash(username []byte) (domain.Colour, error) {
	if len(username) == 0 {
		return domain.Colour{}, domain.ErrInvalidInput
	}

	first := uint64(username[0])
	length := uint64(len(username))

	var ch [3]float32
	for i := range ch {
		v := (first*byteWeights[i] + length*lengthWeights[i]) % 256
		ch[i] = float32(v) / 255
	}
	return domain.Colour{R: ch[0], G: ch[1], B: ch[2]}, nil
}
