// Package snapshot holds the latest decoded value of every command the
// daemon has seen and persists it atomically to JSON for a web
// front-end to poll. It is the one piece of daemon state read from a
// goroutine other than the arbitration loop's, so it guards itself
// with a mutex.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/snksoft/crc"
)

var crc32Table = crc.NewTable(crc.CRC32)

// Value is one decoded reading, keyed by command in Store.
type Value struct {
	Primary   byte        `json:"primary"`
	Secondary byte        `json:"secondary"`
	Source    byte        `json:"source"`
	Data      interface{} `json:"data"`
	SeenAt    time.Time   `json:"seenAt"`
}

// Store is an in-memory table of the most recent Value per command,
// safe for concurrent reads from an HTTP handler and writes from the
// arbitration loop.
type Store struct {
	mu     sync.RWMutex
	values map[[2]byte]Value
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{values: make(map[[2]byte]Value)}
}

// Put records the latest value for a (primary, secondary) command.
func (s *Store) Put(primary, secondary, source byte, data interface{}, seenAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[[2]byte{primary, secondary}] = Value{
		Primary: primary, Secondary: secondary, Source: source, Data: data, SeenAt: seenAt,
	}
}

// Snapshot returns a point-in-time copy of every recorded value.
func (s *Store) Snapshot() []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Value, 0, len(s.values))
	for _, v := range s.values {
		out = append(out, v)
	}
	return out
}

// MarshalJSON lets a Store be encoded directly (e.g. by the HTTP
// handler) without a caller having to call Snapshot first.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// WriteFile serializes the store to JSON and writes it to path
// atomically: it writes to a temp file in the same directory and
// renames it into place, so a reader never observes a partial file.
// It returns the CRC-32 (IEEE) of the written bytes; the file itself
// holds only the JSON, with no checksum stored in it.
func (s *Store) WriteFile(path string) (crc32 uint32, err error) {
	data, err := json.Marshal(s)
	if err != nil {
		return 0, err
	}
	crc32 = checksum(data)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, err
	}
	return crc32, nil
}

// checksum computes the CRC-32 (IEEE) of data.
func checksum(data []byte) uint32 {
	return Checksum(data)
}

// Checksum computes the CRC-32 (IEEE) of data; exported so a consumer
// (httpapi's /snapshot.crc32 route) can verify a snapshot it read over
// HTTP without re-deriving the same table.
func Checksum(data []byte) uint32 {
	c := crc32Table.InitCrc()
	c = crc32Table.UpdateCrc(c, data)
	return uint32(crc32Table.CRC32(c))
}
