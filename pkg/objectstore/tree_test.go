package objectstore

import (
	"strings"
	"testing"

	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

func TestEncodeTreeIsOrderIndependent(t *testing.T) {
	a := []TreeEntry{
		{RelPath: "b.txt", Hash: hashinfo.ForFile("md5", "bbb", 2)},
		{RelPath: "a.txt", Hash: hashinfo.ForFile("md5", "aaa", 1)},
	}
	b := []TreeEntry{a[1], a[0]}

	encodedA, err := EncodeTree(a)
	if err != nil {
		t.Fatal(err)
	}
	encodedB, err := EncodeTree(b)
	if err != nil {
		t.Fatal(err)
	}

	if string(encodedA) != string(encodedB) {
		t.Errorf("encoding depended on input order:\n%s\nvs\n%s", encodedA, encodedB)
	}
}

func TestEncodeDecodeTreeRoundTrip(t *testing.T) {
	entries := []TreeEntry{
		{RelPath: "dir/file.txt", Hash: hashinfo.ForFile("md5", "abc123", 42)},
	}

	encoded, err := EncodeTree(entries)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeTree(encoded)
	if err != nil {
		t.Fatal(err)
	}

	if len(decoded) != 1 || decoded[0].RelPath != "dir/file.txt" {
		t.Fatalf("unexpected decoded entries: %+v", decoded)
	}
	if !decoded[0].Hash.Equal(entries[0].Hash) {
		t.Errorf("hash mismatch after round trip: %+v", decoded[0].Hash)
	}
}

func TestPutTreeLoadTreeRoundTrip(t *testing.T) {
	s := newTestStore(t)

	fileInfo, err := s.Put(strings.NewReader("file content"))
	if err != nil {
		t.Fatal(err)
	}

	entries := []TreeEntry{{RelPath: "a.txt", Hash: fileInfo}}
	treeInfo, err := s.PutTree(entries)
	if err != nil {
		t.Fatal("unable to put tree:", err)
	}
	if !treeInfo.IsDir() {
		t.Error("expected tree HashInfo to report IsDir")
	}

	loaded, err := s.LoadTree(treeInfo)
	if err != nil {
		t.Fatal("unable to load tree:", err)
	}
	if len(loaded) != 1 || loaded[0].RelPath != "a.txt" {
		t.Fatalf("unexpected loaded entries: %+v", loaded)
	}
}
