package dedup

import (
	"fmt"
	"upstack/checksum"
	"upstack/file_io"
)

// Hashed pairs a source payload with its content digest.
type Hashed struct {
	Source *file_io.Source
	Digest string
}

// Digest computes the content digest for a source. The digest depends only
// on the payload bytes, never on the file name.
func Digest(s *file_io.Source) (string, error) {
	sum, err := checksum.Sha256Reader(s.Open())
	if err != nil {
		return "", fmt.Errorf("dedup: could not digest %s: %w", s.Name, err)
	}
	return checksum.HexEncodeStr(sum), nil
}

func HashAll(sources []*file_io.Source) ([]Hashed, error) {
	hashed := make([]Hashed, 0, len(sources))
	for _, s := range sources {
		digest, err := Digest(s)
		if err != nil {
			return nil, err
		}
		hashed = append(hashed, Hashed{Source: s, Digest: digest})
	}
	return hashed, nil
}

// FindDuplicates partitions candidates against a set of already-known
// digests. The known set is accumulated while scanning in order, so the
// second of two identical candidates in one batch is flagged as a duplicate
// even when knownDigests is empty. The caller's map is not modified.
func FindDuplicates(candidates []Hashed, knownDigests map[string]bool) (duplicates []Hashed, unique []Hashed) {
	seen := make(map[string]bool, len(knownDigests)+len(candidates))
	for digest := range knownDigests {
		seen[digest] = true
	}
	for _, c := range candidates {
		if seen[c.Digest] {
			duplicates = append(duplicates, c)
			continue
		}
		seen[c.Digest] = true
		unique = append(unique, c)
	}
	return duplicates, unique
}
