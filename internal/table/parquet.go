package table

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// parquetParallelism is the number of marshalling goroutines per file.
const parquetParallelism = 4

// ParquetWriter writes each table to <dir>/<name>.parquet using the schema
// declared by the row struct tags.
type ParquetWriter struct {
	dir    string
	names  Names
	codec  parquet.CompressionCodec
	logger *slog.Logger
}

// NewParquetWriter creates a Parquet sink. compression is SNAPPY, GZIP or
// NONE; empty means SNAPPY.
func NewParquetWriter(dir string, names Names, compression string, logger *slog.Logger) (*ParquetWriter, error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}
	return &ParquetWriter{dir: dir, names: names, codec: codec, logger: logger}, nil
}

func (w *ParquetWriter) Name() string { return "parquet" }

// Write writes the three tables of res.
func (w *ParquetWriter) Write(ctx context.Context, res domain.Result) error {
	if err := writeParquetTable(ctx, w, w.names.Registry, new(domain.RegistryMatch), res.Registry); err != nil {
		return err
	}
	if err := writeParquetTable(ctx, w, w.names.Network, new(domain.NetworkMatch), res.Network); err != nil {
		return err
	}
	return writeParquetTable(ctx, w, w.names.ThreeWay, new(domain.ThreeWayMatch), res.ThreeWay)
}

func writeParquetTable[T any](ctx context.Context, w *ParquetWriter, name string, proto *T, rows []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeParquet(proto, rows, w.codec)
	if err != nil {
		return fmt.Errorf("table %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name+".parquet")
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	w.logger.Info("table written", "format", "parquet", "path", path, "rows", len(rows))
	return nil
}

// EncodeParquet encodes rows as a Parquet file. proto is a pointer to a zero
// row used for schema reflection.
func EncodeParquet[T any](proto *T, rows []T, codec parquet.CompressionCodec) (data []byte, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, proto, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}

	// The library panics on some schema mismatches during flush.
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("parquet writer panicked: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finish parquet file: %w", err)
	}
	return buf.Bytes(), nil
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "SNAPPY", "":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression %q", name)
	}
}
