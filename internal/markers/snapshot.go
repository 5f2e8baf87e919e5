package markers

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"markercluster.opengeo.dev/internal/cluster"
)

// Snapshot files hold a zstd-compressed little-endian dump of a marker
// set: a count, then per marker an ID (length-prefixed), a lat/lon pair
// and the draggable flag. They let a large marker set load without
// re-downloading and re-parsing its source feed.

func SaveSnapshot(filename string, markers []*cluster.Marker) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %v", err)
	}
	defer enc.Close()

	binary.Write(enc, binary.LittleEndian, uint32(len(markers)))

	for _, m := range markers {
		idBytes := []byte(m.ID)
		binary.Write(enc, binary.LittleEndian, uint32(len(idBytes)))
		enc.Write(idBytes)

		binary.Write(enc, binary.LittleEndian, m.Position.Lat)
		binary.Write(enc, binary.LittleEndian, m.Position.Lon)
		binary.Write(enc, binary.LittleEndian, m.Draggable)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %v", err)
	}

	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %v", err)
	}

	return nil
}

func LoadSnapshot(filename string) ([]*cluster.Marker, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer dec.Close()

	var count uint32
	if err := binary.Read(dec, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read marker count: %v", err)
	}

	markers := make([]*cluster.Marker, 0, count)
	for i := uint32(0); i < count; i++ {
		var idLen uint32
		if err := binary.Read(dec, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("failed to read marker %d: %v", i, err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(dec, idBytes); err != nil {
			return nil, fmt.Errorf("failed to read marker %d: %v", i, err)
		}

		m := &cluster.Marker{ID: string(idBytes)}
		if err := binary.Read(dec, binary.LittleEndian, &m.Position.Lat); err != nil {
			return nil, fmt.Errorf("failed to read marker %d: %v", i, err)
		}
		if err := binary.Read(dec, binary.LittleEndian, &m.Position.Lon); err != nil {
			return nil, fmt.Errorf("failed to read marker %d: %v", i, err)
		}
		if err := binary.Read(dec, binary.LittleEndian, &m.Draggable); err != nil {
			return nil, fmt.Errorf("failed to read marker %d: %v", i, err)
		}
		markers = append(markers, m)
	}

	return markers, nil
}
