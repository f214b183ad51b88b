package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// digests everything readable from r. same bytes always produce the same sum.
func Sha256Reader(r io.Reader) ([]byte, error) {
	h := sha256.New()
	_, err := io.Copy(h, r)
	if err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func HexEncodeStr(bytes []byte) string {
	return hex.EncodeToString(bytes)
}
