// Package shard materializes the final record set as compressed,
// size-bounded ndjson files plus the duplicate-clusters artifact.
package shard

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/scrub/internal/types"
)

// DataDir is the subdirectory holding shard files.
const DataDir = "data"

// ClustersFile is the duplicate-clusters artifact at the output root.
const ClustersFile = "duplicate_clusters.json"

// Writer persists the final record set under Dir.
type Writer struct {
	// Dir is the output root.
	Dir string

	// SamplesPerFile is the maximum records per shard.
	SamplesPerFile int

	// CompressionLevel is the gzip level for shard files.
	CompressionLevel int
}

// WriteAll partitions records into consecutive groups of at most
// SamplesPerFile, preserving order, and writes each group as
// data/file-NNNNNNNNNNNN.json.gz (1-based shard index). Returns the
// shard count.
//
// Shards share no state, so they are compressed concurrently. Each
// shard is written uncompressed first, compressed through a temp file,
// and the uncompressed source removed only after the compressed file is
// durably in place. A failure leaves the uncompressed shard behind for
// inspection and propagates; it never leaves a truncated .gz posing as
// a complete one.
func (w *Writer) WriteAll(ctx context.Context, records []types.Record) (int, error) {
	if w.SamplesPerFile <= 0 {
		return 0, fmt.Errorf("samples_per_file must be positive (got %d)", w.SamplesPerFile)
	}
	dataDir := filepath.Join(w.Dir, DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}

	n := (len(records) + w.SamplesPerFile - 1) / w.SamplesPerFile

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for s := 0; s < n; s++ {
		lo := s * w.SamplesPerFile
		hi := min(lo+w.SamplesPerFile, len(records))
		path := filepath.Join(dataDir, fmt.Sprintf("file-%012d.json", s+1))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := writeShard(path, records[lo:hi]); err != nil {
				return fmt.Errorf("shard %s: %w", filepath.Base(path), err)
			}
			if err := compressFile(path, w.CompressionLevel); err != nil {
				return fmt.Errorf("compressing %s: %w", filepath.Base(path), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return n, nil
}

// writeShard serializes one group of records as newline-delimited JSON.
func writeShard(path string, records []types.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			return fmt.Errorf("marshaling record %d: %w", rec.Index, err)
		}
		if _, err := bw.Write(append(data, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// compressFile gzips path to path+".gz" and removes the original. The
// compressed file is built under a temp name and renamed into place, so
// a crash or write error can't be mistaken for a finished shard.
func compressFile(path string, level int) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := path + ".gz.tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		out.Close()
		os.Remove(tmp)
		return err
	}

	gz, err := gzip.NewWriterLevel(out, level)
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(gz, in); err != nil {
		return fail(err)
	}
	if err := gz.Close(); err != nil {
		return fail(err)
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path+".gz"); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Remove(path)
}

// WriteClusters persists the cluster mapping at the output root. This
// is a single artifact, independent of sharding.
func (w *Writer) WriteClusters(clusters types.DuplicateClusters) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(clusters, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling clusters: %w", err)
	}
	path := filepath.Join(w.Dir, ClustersFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", ClustersFile, err)
	}
	return nil
}
