package database

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hdt3213/gkvs/datastruct/dict"
	"github.com/hdt3213/gkvs/datastruct/hyperloglog"
	List "github.com/hdt3213/gkvs/datastruct/list"
	HashSet "github.com/hdt3213/gkvs/datastruct/set"
	SortedSet "github.com/hdt3213/gkvs/datastruct/sortedset"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/lib/logger"
	"go.uber.org/multierr"
)

// snapshotMagic tags a .gkvs snapshot file; it is deliberately not
// byte-compatible with Redis RDB, since this uses its own simple format.
var snapshotMagic = [8]byte{'G', 'K', 'V', 'S', 'N', 'A', 'P', '1'}

const snapshotVersion uint32 = 1

const (
	typeString byte = iota
	typeList
	typeHash
	typeSet
	typeZSet
	typeHLL
)

// SaveSnapshot writes every database's live keys to w in the .gkvs binary
// format: an 8-byte magic, a version, a total record count, then one
// variable-length record per key (dbIndex, key, type tag, ttl, payload).
// Iteration happens through DB.ForEach, which already takes each shard's
// lock for the duration of its own callback (copy-on-iterate).
func (server *Server) SaveSnapshot(w io.Writer) error {
	var records [][]byte
	for dbIndex := range server.dbSet {
		db := server.mustSelectDB(dbIndex)
		var encodeErr error
		db.ForEach(func(key string, data *database.DataEntity, expiration *time.Time) bool {
			rec, err := encodeRecord(dbIndex, key, data, expiration)
			if err != nil {
				encodeErr = err
				return false
			}
			records = append(records, rec)
			return true
		})
		if encodeErr != nil {
			return encodeErr
		}
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := writeUint32(bw, snapshotVersion); err != nil {
		return err
	}
	if err := writeUint32(bw, uint32(len(records))); err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadSnapshot reads a .gkvs snapshot previously written by SaveSnapshot
// and installs its records into the matching databases.
func (server *Server) LoadSnapshot(r io.Reader) error {
	br := bufio.NewReader(r)
	var magic [8]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return fmt.Errorf("read snapshot magic: %w", err)
	}
	if magic != snapshotMagic {
		return fmt.Errorf("not a gkvs snapshot file")
	}
	version, err := readUint32(br)
	if err != nil {
		return fmt.Errorf("read snapshot version: %w", err)
	}
	if version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", version)
	}
	count, err := readUint32(br)
	if err != nil {
		return fmt.Errorf("read record count: %w", err)
	}
	loadTime := time.Now()
	for i := uint32(0); i < count; i++ {
		dbIndex, key, entity, expireAt, err := decodeRecord(br, loadTime)
		if err != nil {
			return fmt.Errorf("decode record %d: %w", i, err)
		}
		db, errReply := server.selectDB(dbIndex)
		if errReply != nil {
			continue
		}
		db.PutEntity(key, entity)
		if expireAt != nil {
			db.Expire(key, *expireAt)
		}
	}
	return nil
}

func encodeRecord(dbIndex int, key string, data *database.DataEntity, expiration *time.Time) ([]byte, error) {
	var buf []byte
	buf = appendUint32(buf, uint32(dbIndex))
	buf = appendString(buf, key)

	typeTag, payload, err := encodeValue(data.Data)
	if err != nil {
		return nil, err
	}
	buf = append(buf, typeTag)

	// ttlMs is a residual millisecond count relative to save time, not an
	// absolute timestamp; a negative value means the key has no TTL. It gets
	// re-anchored to the load-time clock when the snapshot is read back.
	ttlMs := int64(-1)
	if expiration != nil {
		ttlMs = time.Until(*expiration).Milliseconds()
	}
	buf = appendInt64(buf, ttlMs)
	buf = appendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	return buf, nil
}

func decodeRecord(r *bufio.Reader, loadTime time.Time) (dbIndex int, key string, entity *database.DataEntity, expireAt *time.Time, err error) {
	rawDBIndex, err := readUint32(r)
	if err != nil {
		return 0, "", nil, nil, err
	}
	key, err = readString(r)
	if err != nil {
		return 0, "", nil, nil, err
	}
	typeTag, err := r.ReadByte()
	if err != nil {
		return 0, "", nil, nil, err
	}
	ttlMs, err := readInt64(r)
	if err != nil {
		return 0, "", nil, nil, err
	}
	payloadLen, err := readUint32(r)
	if err != nil {
		return 0, "", nil, nil, err
	}
	payload := make([]byte, payloadLen)
	if _, err = io.ReadFull(r, payload); err != nil {
		return 0, "", nil, nil, err
	}
	data, err := decodeValue(typeTag, payload)
	if err != nil {
		return 0, "", nil, nil, err
	}
	if ttlMs >= 0 {
		t := loadTime.Add(time.Duration(ttlMs) * time.Millisecond)
		expireAt = &t
	}
	return int(rawDBIndex), key, &database.DataEntity{Data: data}, expireAt, nil
}

func encodeValue(v interface{}) (byte, []byte, error) {
	switch val := v.(type) {
	case []byte:
		return typeString, val, nil
	case *List.QuickList:
		var buf []byte
		buf = appendUint32(buf, uint32(val.Len()))
		val.ForEach(func(_ int, item interface{}) bool {
			buf = appendString(buf, string(item.([]byte)))
			return true
		})
		return typeList, buf, nil
	case dict.Dict:
		var buf []byte
		buf = appendUint32(buf, uint32(val.Len()))
		val.ForEach(func(field string, raw interface{}) bool {
			buf = appendString(buf, field)
			buf = appendString(buf, string(raw.([]byte)))
			return true
		})
		return typeHash, buf, nil
	case *HashSet.Set:
		var buf []byte
		buf = appendUint32(buf, uint32(val.Len()))
		val.ForEach(func(member string) bool {
			buf = appendString(buf, member)
			return true
		})
		return typeSet, buf, nil
	case *SortedSet.SortedSet:
		var buf []byte
		buf = appendUint32(buf, uint32(val.Len()))
		val.ForEach(0, val.Len(), false, func(e *SortedSet.Element) bool {
			buf = appendString(buf, e.Member)
			buf = appendFloat64(buf, e.Score)
			return true
		})
		return typeZSet, buf, nil
	case *hyperloglog.HyperLogLog:
		return typeHLL, val.Registers(), nil
	default:
		return 0, nil, fmt.Errorf("cannot snapshot value of type %T", v)
	}
}

func decodeValue(typeTag byte, payload []byte) (interface{}, error) {
	if typeTag == typeString {
		return payload, nil
	}
	r := bufio.NewReader(newByteReader(payload))
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	switch typeTag {
	case typeString:
		return payload, nil
	case typeList:
		l := List.NewQuickList()
		for i := uint32(0); i < count; i++ {
			s, err := readString(r)
			if err != nil {
				return nil, err
			}
			l.Add([]byte(s))
		}
		return l, nil
	case typeHash:
		h := dict.MakeSimple()
		for i := uint32(0); i < count; i++ {
			field, err := readString(r)
			if err != nil {
				return nil, err
			}
			value, err := readString(r)
			if err != nil {
				return nil, err
			}
			h.Put(field, []byte(value))
		}
		return h, nil
	case typeSet:
		s := HashSet.Make()
		for i := uint32(0); i < count; i++ {
			member, err := readString(r)
			if err != nil {
				return nil, err
			}
			s.Add(member)
		}
		return s, nil
	case typeZSet:
		z := SortedSet.Make()
		for i := uint32(0); i < count; i++ {
			member, err := readString(r)
			if err != nil {
				return nil, err
			}
			score, err := readFloat64(r)
			if err != nil {
				return nil, err
			}
			z.Add(member, score)
		}
		return z, nil
	case typeHLL:
		hll, ok := hyperloglog.FromRegisters(payload)
		if !ok {
			return nil, fmt.Errorf("corrupt hyperloglog register payload")
		}
		return hll, nil
	default:
		return nil, fmt.Errorf("unknown snapshot type tag %d", typeTag)
	}
}

/* ---- low-level encode/decode helpers ---- */

type byteReader struct {
	b []byte
	i int
}

func newByteReader(b []byte) *byteReader { return &byteReader{b: b} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

func appendFloat64(buf []byte, v float64) []byte {
	return appendInt64(buf, int64(math.Float64bits(v)))
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func writeUint32(w io.Writer, v uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	_, err := w.Write(tmp[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func readInt64(r io.Reader) (int64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(tmp[:])), nil
}

func readFloat64(r io.Reader) (float64, error) {
	bits, err := readInt64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

/* ---- persister: periodic background saver ---- */

// Persister periodically snapshots the whole server to disk on its own
// goroutine, driven by a ticker at a fixed interval rather than a
// continuous command log.
type Persister struct {
	server   *Server
	path     string
	interval time.Duration
	stopCh   chan struct{}
	saving   atomic.Bool
}

// NewPersister creates a Persister for server. A non-positive intervalSecs
// disables the background loop; callers may still call Save directly.
func NewPersister(server *Server, path string, intervalSecs int) *Persister {
	p := &Persister{
		server: server,
		path:   path,
		stopCh: make(chan struct{}),
	}
	if intervalSecs > 0 {
		p.interval = time.Duration(intervalSecs) * time.Second
	}
	return p
}

// Start launches the background save loop, if one was configured.
func (p *Persister) Start() {
	if p.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				if err := p.Save(); err != nil {
					logger.Error(fmt.Errorf("background snapshot save failed: %w", err))
				}
			}
		}
	}()
}

// Close stops the background save loop.
func (p *Persister) Close() {
	close(p.stopCh)
}

// Save writes a fresh snapshot to a temp file in the same directory, fsyncs
// it, then renames it over the target path so a crash mid-write can never
// leave a half-written snapshot in place.
func (p *Persister) Save() error {
	if !p.saving.CompareAndSwap(false, true) {
		return fmt.Errorf("snapshot save already in progress")
	}
	defer p.saving.Store(false)

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, "gkvs-snapshot-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	saveErr := p.server.SaveSnapshot(tmp)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if err := multierr.Combine(saveErr, syncErr, closeErr); err != nil {
		return err
	}
	return os.Rename(tmpPath, p.path)
}

// Load reads a snapshot file from disk into the server, if it exists.
func (p *Persister) Load() error {
	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return p.server.LoadSnapshot(f)
}
