// Package posdb implements a scatter.Provider that stores computed positions
// in a LevelDB database.
package posdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/df-mc/foliage/scatter"
	"github.com/df-mc/foliage/scatter/dither"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/storage"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// version is the version of the record format. Records of other versions are
// treated as missing.
const version = 1

// keyPositions prefixes the keys of position records.
const keyPositions = 'p'

// Config holds the settings of a DB.
type Config struct {
	// Log is the Logger used to log records that could not be decoded. If
	// nil, Log is set to slog.Default().
	Log *slog.Logger
	// Compression specifies the compression of the database. The zero value
	// uses snappy compression.
	Compression opt.Compression
}

// DB implements scatter.Provider on top of a LevelDB database.
type DB struct {
	conf Config
	ldb  *leveldb.DB
}

// Compile time check to make sure *DB implements scatter.Provider.
var _ scatter.Provider = (*DB)(nil)

// Open creates a new DB reading from and writing to the directory passed. The
// directory is created if it does not exist.
func (conf Config) Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, fmt.Errorf("open db: create dir: %w", err)
	}
	conf = conf.withDefaults()
	ldb, err := leveldb.OpenFile(dir, &opt.Options{Compression: conf.Compression})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &DB{conf: conf, ldb: ldb}, nil
}

// OpenMemory creates a new DB that keeps all records in memory.
func (conf Config) OpenMemory() (*DB, error) {
	conf = conf.withDefaults()
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &DB{conf: conf, ldb: ldb}, nil
}

func (conf Config) withDefaults() Config {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Compression == opt.DefaultCompression {
		conf.Compression = opt.SnappyCompression
	}
	return conf
}

// record is the NBT representation of a scatter.Record. Positions are stored
// as the bits of the X and Y components, interleaved.
type record struct {
	Version     int32   `nbt:"version"`
	Fingerprint int64   `nbt:"fingerprint"`
	Positions   []int64 `nbt:"positions"`
}

// LoadPositions loads the record of a region. scatter.ErrNotFound is returned
// if the region has no record.
func (db *DB) LoadPositions(id scatter.RegionID) (scatter.Record, error) {
	data, err := db.ldb.Get(key(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return scatter.Record{}, scatter.ErrNotFound
	} else if err != nil {
		return scatter.Record{}, fmt.Errorf("load positions %v: %w", id, err)
	}
	var rec record
	if err := nbt.UnmarshalEncoding(data, &rec, nbt.LittleEndian); err != nil {
		db.conf.Log.Error("decode positions: "+err.Error(), "regionX", id.X, "regionZ", id.Z)
		return scatter.Record{}, scatter.ErrNotFound
	}
	if rec.Version != version || len(rec.Positions)%2 != 0 {
		return scatter.Record{}, scatter.ErrNotFound
	}
	positions := make(dither.Positions, len(rec.Positions)/2)
	for i := range positions {
		positions[i] = mgl64.Vec2{
			math.Float64frombits(uint64(rec.Positions[i*2])),
			math.Float64frombits(uint64(rec.Positions[i*2+1])),
		}
	}
	return scatter.Record{Fingerprint: uint64(rec.Fingerprint), Positions: positions}, nil
}

// SavePositions stores the record of a region.
func (db *DB) SavePositions(id scatter.RegionID, rec scatter.Record) error {
	bits := make([]int64, 0, len(rec.Positions)*2)
	for _, p := range rec.Positions {
		bits = append(bits, int64(math.Float64bits(p.X())), int64(math.Float64bits(p.Y())))
	}
	data, err := nbt.MarshalEncoding(record{
		Version:     version,
		Fingerprint: int64(rec.Fingerprint),
		Positions:   bits,
	}, nbt.LittleEndian)
	if err != nil {
		return fmt.Errorf("encode positions %v: %w", id, err)
	}
	if err := db.ldb.Put(key(id), data, nil); err != nil {
		return fmt.Errorf("save positions %v: %w", id, err)
	}
	return nil
}

// DeletePositions removes the record of a region.
func (db *DB) DeletePositions(id scatter.RegionID) error {
	if err := db.ldb.Delete(key(id), nil); err != nil {
		return fmt.Errorf("delete positions %v: %w", id, err)
	}
	return nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.ldb.Close()
}

// key returns the database key of a region.
func key(id scatter.RegionID) []byte {
	k := make([]byte, 9)
	k[0] = keyPositions
	binary.LittleEndian.PutUint32(k[1:], uint32(id.X))
	binary.LittleEndian.PutUint32(k[5:], uint32(id.Z))
	return k
}
