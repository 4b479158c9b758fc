package hashing

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

// HashFile computes the HashInfo for a single file at path using algorithm.
func HashFile(path string, algorithm Algorithm) (hashinfo.HashInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return hashinfo.HashInfo{}, fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close()

	hasher := algorithm.Factory()()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return hashinfo.HashInfo{}, fmt.Errorf("unable to read file: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	return hashinfo.ForFile(algorithm.String(), digest, uint64(size)), nil
}
