package statecache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

// encodeEntry serializes an Entry as:
//
//	size(8) | modTimeUnixNano(8) | lastAccessedUnixNano(8) |
//	algorithmLen(2) | algorithm | digestLen(2) | digest
func encodeEntry(e Entry) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, e.Size)
	binary.Write(buf, binary.BigEndian, e.ModTime.UnixNano())
	binary.Write(buf, binary.BigEndian, e.LastAccessed.UnixNano())
	writeString(buf, e.Hash.Algorithm)
	writeString(buf, e.Hash.Digest)
	return buf.Bytes()
}

func decodeEntry(data []byte) (Entry, error) {
	buf := bytes.NewReader(data)

	var size uint64
	var modTimeNanos, lastAccessedNanos int64
	if err := binary.Read(buf, binary.BigEndian, &size); err != nil {
		return Entry{}, fmt.Errorf("truncated entry: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &modTimeNanos); err != nil {
		return Entry{}, fmt.Errorf("truncated entry: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &lastAccessedNanos); err != nil {
		return Entry{}, fmt.Errorf("truncated entry: %w", err)
	}
	algorithm, err := readString(buf)
	if err != nil {
		return Entry{}, err
	}
	digest, err := readString(buf)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Size:         size,
		ModTime:      time.Unix(0, modTimeNanos),
		LastAccessed: time.Unix(0, lastAccessedNanos),
		Hash:         hashinfo.ForFile(algorithm, digest, size),
	}, nil
}

// encodeLink serializes a LinkEntry as inode(8) | modTimeUnixNano(8).
func encodeLink(e LinkEntry) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, e.Inode)
	binary.Write(buf, binary.BigEndian, e.ModTime.UnixNano())
	return buf.Bytes()
}

func decodeLink(data []byte) (LinkEntry, error) {
	buf := bytes.NewReader(data)

	var inode uint64
	var modTimeNanos int64
	if err := binary.Read(buf, binary.BigEndian, &inode); err != nil {
		return LinkEntry{}, fmt.Errorf("truncated link entry: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &modTimeNanos); err != nil {
		return LinkEntry{}, fmt.Errorf("truncated link entry: %w", err)
	}

	return LinkEntry{Inode: inode, ModTime: time.Unix(0, modTimeNanos)}, nil
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(buf *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
		return "", fmt.Errorf("truncated string length: %w", err)
	}
	data := make([]byte, length)
	if _, err := buf.Read(data); err != nil {
		return "", fmt.Errorf("truncated string data: %w", err)
	}
	return string(data), nil
}
