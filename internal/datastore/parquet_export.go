package datastore

import (
	"context"
	"io"
	"strings"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/parquet-go/parquet-go"
)

// compressionOption maps a codec name to a writer option. Unknown names use zstd.
func compressionOption(codec string) parquet.WriterOption {
	switch strings.ToLower(codec) {
	case "none", "uncompressed":
		return parquet.Compression(&parquet.Uncompressed)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

// ExportParquet writes every snapshot to w as a Parquet file and returns the row count.
func (s *SnapshotStore) ExportParquet(ctx context.Context, w io.Writer, codec string) (int, error) {
	snapshots, err := s.AllSnapshots(ctx)
	if err != nil {
		return 0, err
	}

	rows := make([]models.ParquetSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		rows = append(rows, snap.ToParquet())
	}

	writer := parquet.NewGenericWriter[models.ParquetSnapshot](w, compressionOption(codec))
	written, err := writer.Write(rows)
	if err != nil {
		writer.Close()
		return 0, common.WrapError(err, "failed to write parquet rows")
	}
	if err := writer.Close(); err != nil {
		return 0, common.WrapError(err, "failed to finalize parquet file")
	}

	s.logger.Info().Int("rows", written).Str("codec", codec).Msg("Exported snapshots to parquet")
	return written, nil
}
