package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/embedops/bootvol"
)

func newCatCommand() *cobra.Command {
	var partition int
	cmd := &cobra.Command{
		Use:          "cat <image> <path>",
		Short:        "Dump a file's contents to stdout",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(args[0], partition, args[1])
		},
	}
	cmd.Flags().IntVar(&partition, "partition", 0, "1-based partition number, 0 for the whole disk")
	return cmd
}

func runCat(image string, partition int, path string) error {
	_, vol, disk, err := openVolume(image, partition)
	if err != nil {
		return err
	}
	defer disk.Close()

	f, err := bootvol.Open(vol, path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}
