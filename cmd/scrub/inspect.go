package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scrub/internal/pipeline"
	"github.com/steveyegge/scrub/internal/shard"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect DIR",
	Short: "Verify the output of a previous run",
	Long: `Read an output directory and check it against the run manifest:
every shard decompresses, shard sizes respect samples_per_file, the
total record count matches what the run reported, and the duplicate
clusters form a valid partition.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Scrub Output: "+dir+" ==="))

		manifest, err := pipeline.ReadManifest(dir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("  %s no %s found, checking shards only\n", gray("○"), pipeline.ManifestFile)
			} else {
				return err
			}
		} else {
			fmt.Printf("  Run:     %s\n", manifest.RunID)
			fmt.Printf("  Dataset: %s\n", manifest.Dataset)
			fmt.Printf("  Written: %d records in %d shards\n", manifest.Written, manifest.Shards)
		}

		paths, err := shard.List(dir)
		if err != nil {
			return err
		}

		failed := false
		total := 0
		for _, path := range paths {
			records, err := shard.ReadShard(path)
			if err != nil {
				fmt.Printf("  %s %s: %v\n", red("✗"), filepath.Base(path), err)
				failed = true
				continue
			}
			total += len(records)
			status := green("✓")
			if manifest != nil && len(records) > manifest.SamplesPerFile {
				status = red("✗ oversized")
				failed = true
			}
			fmt.Printf("  %s %s (%d records)\n", status, filepath.Base(path), len(records))
		}

		if manifest != nil {
			if len(paths) != manifest.Shards {
				fmt.Printf("  %s shard count %d does not match manifest (%d)\n", red("✗"), len(paths), manifest.Shards)
				failed = true
			}
			if total != manifest.Written {
				fmt.Printf("  %s %d records on disk, manifest says %d\n", red("✗"), total, manifest.Written)
				failed = true
			}
		}

		clusters, err := shard.ReadClusters(dir)
		if err != nil {
			fmt.Printf("  %s %s: %v\n", red("✗"), shard.ClustersFile, err)
			failed = true
		} else {
			fmt.Printf("  %s %s (%d clusters)\n", green("✓"), shard.ClustersFile, len(clusters))
			if manifest != nil && len(clusters) != manifest.Clusters {
				fmt.Printf("  %s cluster count %d does not match manifest (%d)\n", red("✗"), len(clusters), manifest.Clusters)
				failed = true
			}
			if manifest != nil {
				if err := clusters.Validate(manifest.Kept); err != nil {
					fmt.Printf("  %s cluster partition broken: %v\n", red("✗"), err)
					failed = true
				}
			}
		}

		fmt.Println()
		if failed {
			return fmt.Errorf("output verification failed")
		}
		fmt.Printf("%s %d records across %d shards verified\n\n", green("✓"), total, len(paths))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
