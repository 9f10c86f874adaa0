package shard

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/steveyegge/scrub/internal/types"
)

// List returns the compressed shard files under dir in shard-index
// order.
func List(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, DataDir, "file-*.json.gz"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths) // zero-padded names sort in index order
	return paths, nil
}

// ReadShard decompresses one shard and returns its records in file
// order.
func ReadShard(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	var records []types.Record
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec types.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("parsing record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadClusters loads the duplicate-clusters artifact from dir.
func ReadClusters(dir string) (types.DuplicateClusters, error) {
	data, err := os.ReadFile(filepath.Join(dir, ClustersFile))
	if err != nil {
		return nil, err
	}
	var clusters types.DuplicateClusters
	if err := json.Unmarshal(data, &clusters); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ClustersFile, err)
	}
	return clusters, nil
}
