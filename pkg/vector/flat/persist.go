package flat

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/vector"
)

const (
	// VectorsFile holds the fixed-width vector rows.
	VectorsFile = "vectors.bin"

	// RecordsFile holds the ordered metadata sidecar.
	RecordsFile = "records.json"
)

// vectorsMagic identifies the binary vector file format.
var vectorsMagic = [8]byte{'S', 'C', 'R', 'N', 'V', 'E', 'C', '1'}

// recordsSidecar is the on-disk layout of RecordsFile. Dimension and count
// are repeated here so the two artifacts can be cross-checked on load.
type recordsSidecar struct {
	Dimension int                    `json:"dimension"`
	Count     int                    `json:"count"`
	Records   []vector.ProjectRecord `json:"records"`
}

// Save writes the index to dir as two artifacts: a binary vector store
// (magic, dimension, count, then little-endian float32 rows) and a JSON
// metadata sidecar. A Load of the same directory reproduces identical
// vectors and identical metadata in identical order.
func (x *Index) Save(dir string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	buf := make([]byte, 0, 16+len(x.vectors)*x.dimensions*4)
	buf = append(buf, vectorsMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(x.dimensions))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x.vectors)))
	for _, v := range x.vectors {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}

	if err := os.WriteFile(filepath.Join(dir, VectorsFile), buf, 0o644); err != nil {
		return fmt.Errorf("writing vector store: %w", err)
	}

	sidecar := recordsSidecar{
		Dimension: x.dimensions,
		Count:     len(x.records),
		Records:   x.records,
	}
	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata sidecar: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, RecordsFile), data, 0o644); err != nil {
		return fmt.Errorf("writing metadata sidecar: %w", err)
	}

	x.logger.Info("saved flat index",
		zap.String("dir", dir),
		zap.Int("count", len(x.records)),
		zap.Int("dimensions", x.dimensions),
	)

	return nil
}

// Load reads an index previously written by Save. Missing artifacts surface
// as os.ErrNotExist; any inconsistency between or within the artifacts
// fails with vector.ErrCorruptIndex rather than silently truncating.
func Load(dir string, logger *zap.Logger) (*Index, error) {
	raw, err := os.ReadFile(filepath.Join(dir, VectorsFile))
	if err != nil {
		return nil, fmt.Errorf("reading vector store: %w", err)
	}

	if len(raw) < 16 {
		return nil, fmt.Errorf("%w: vector store truncated at %d bytes", vector.ErrCorruptIndex, len(raw))
	}
	if [8]byte(raw[:8]) != vectorsMagic {
		return nil, fmt.Errorf("%w: bad vector store magic", vector.ErrCorruptIndex)
	}

	dimensions := int(binary.LittleEndian.Uint32(raw[8:12]))
	count := int(binary.LittleEndian.Uint32(raw[12:16]))
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimension %d", vector.ErrCorruptIndex, dimensions)
	}

	body := raw[16:]
	if len(body) != count*dimensions*4 {
		return nil, fmt.Errorf("%w: vector store has %d payload bytes, want %d",
			vector.ErrCorruptIndex, len(body), count*dimensions*4)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		row := make([]float32, dimensions)
		for j := range row {
			off := (i*dimensions + j) * 4
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
		}
		vectors[i] = row
	}

	data, err := os.ReadFile(filepath.Join(dir, RecordsFile))
	if err != nil {
		return nil, fmt.Errorf("reading metadata sidecar: %w", err)
	}

	var sidecar recordsSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata sidecar: %v", vector.ErrCorruptIndex, err)
	}

	if sidecar.Dimension != dimensions {
		return nil, fmt.Errorf("%w: sidecar dimension %d, vector store dimension %d",
			vector.ErrCorruptIndex, sidecar.Dimension, dimensions)
	}
	if sidecar.Count != count || len(sidecar.Records) != count {
		return nil, fmt.Errorf("%w: sidecar has %d records, vector store has %d rows",
			vector.ErrCorruptIndex, len(sidecar.Records), count)
	}

	idx, err := NewIndex(dimensions, logger)
	if err != nil {
		return nil, err
	}
	idx.vectors = vectors
	idx.records = sidecar.Records

	logger.Info("loaded flat index",
		zap.String("dir", dir),
		zap.Int("count", count),
		zap.Int("dimensions", dimensions),
	)

	return idx, nil
}
