package chunk

import (
	"encoding/binary"
	"math"

	"github.com/aldermoor/braindex/internal/db"
	"github.com/aldermoor/braindex/internal/domain"
)

// buildHashFields converts a domain Chunk into a flat map[string]string for HSET.
func buildHashFields(c domain.Chunk) map[string]string {
	return map[string]string{
		"source_file": c.SourceFile,
		"chunk_text":  c.Text,
		"vector":      vectorToBytes(c.Vector),
	}
}

// parseEntry converts a search hit back into a retrieved chunk.
func parseEntry(entry db.SearchEntry) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			SourceFile: entry.Fields["source_file"],
			Text:       entry.Fields["chunk_text"],
		},
		Distance: entry.Distance,
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
