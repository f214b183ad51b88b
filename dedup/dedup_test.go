package dedup

import (
	"testing"
	"upstack/file_io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func src(name string, payload string) *file_io.Source {
	return file_io.NewSource(name, "text/plain", []byte(payload))
}

func TestDigestDependsOnPayloadOnly(t *testing.T) {
	a, err := Digest(src("report.pdf", "same bytes"))
	require.NoError(t, err)
	b, err := Digest(src("copy-of-report.pdf", "same bytes"))
	require.NoError(t, err)
	c, err := Digest(src("report.pdf", "different bytes"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestFindDuplicatesWithinBatch(t *testing.T) {
	hashed, err := HashAll([]*file_io.Source{
		src("one.txt", "alpha"),
		src("two.txt", "beta"),
		src("one-again.txt", "alpha"),
	})
	require.NoError(t, err)

	duplicates, unique := FindDuplicates(hashed, nil)

	require.Len(t, duplicates, 1)
	assert.Equal(t, "one-again.txt", duplicates[0].Source.Name)
	require.Len(t, unique, 2)
	assert.Equal(t, "one.txt", unique[0].Source.Name)
	assert.Equal(t, "two.txt", unique[1].Source.Name)
}

func TestFindDuplicatesAgainstKnownDigests(t *testing.T) {
	hashed, err := HashAll([]*file_io.Source{
		src("old.txt", "already uploaded"),
		src("new.txt", "fresh content"),
	})
	require.NoError(t, err)

	known := map[string]bool{hashed[0].Digest: true}
	duplicates, unique := FindDuplicates(hashed, known)

	require.Len(t, duplicates, 1)
	assert.Equal(t, "old.txt", duplicates[0].Source.Name)
	require.Len(t, unique, 1)
	assert.Equal(t, "new.txt", unique[0].Source.Name)
}

func TestFindDuplicatesDoesNotMutateCallerMap(t *testing.T) {
	hashed, err := HashAll([]*file_io.Source{src("a.txt", "a"), src("b.txt", "b")})
	require.NoError(t, err)

	known := map[string]bool{"ffff": true}
	FindDuplicates(hashed, known)

	assert.Len(t, known, 1)
	assert.True(t, known["ffff"])
}

func TestFindDuplicatesEmptyBatch(t *testing.T) {
	duplicates, unique := FindDuplicates(nil, map[string]bool{"aa": true})
	assert.Empty(t, duplicates)
	assert.Empty(t, unique)
}
