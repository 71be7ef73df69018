package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/embedops/bootvol"
)

func newLsCommand() *cobra.Command {
	var partition int
	cmd := &cobra.Command{
		Use:          "ls <image> [path]",
		Short:        "List a directory on a mounted volume",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}
			return runLs(args[0], partition, path)
		},
	}
	cmd.Flags().IntVar(&partition, "partition", 0, "1-based partition number, 0 for the whole disk")
	return cmd
}

func runLs(image string, partition int, path string) error {
	_, vol, disk, err := openVolume(image, partition)
	if err != nil {
		return err
	}
	defer disk.Close()

	return bootvol.ForEachEntry(vol, path, func(name string, isDir bool, size int64) error {
		kind := "-"
		sizeStr := humanize.Bytes(uint64(size))
		if isDir {
			kind = "d"
			sizeStr = "-"
		}
		fmt.Printf("%s  %10s  %s\n", kind, sizeStr, name)
		return nil
	})
}
