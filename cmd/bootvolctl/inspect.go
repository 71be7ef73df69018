package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/embedops/bootvol"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "inspect <image>",
		Short:        "Walk an image's partition table and report every volume found",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runInspect,
	}
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	image := args[0]
	ix, whole, disk, err := openVolume(image, 0)
	if err != nil {
		return err
	}
	defer disk.Close()

	volumes := []*bootvol.Volume{whole}

	var probeErrs *multierror.Error
	for idx := 1; ; idx++ {
		vol, res := bootvol.PartGet(ix, whole, idx)
		if res != bootvol.PartFound {
			if res != bootvol.PartOutOfRange && res != bootvol.PartNoTable {
				probeErrs = multierror.Append(probeErrs, fmt.Errorf("partition %d: %s", idx, partResultString(res)))
			}
			break
		}
		volumes = append(volumes, vol)
	}

	for _, vol := range volumes {
		label, labelErr := bootvol.Label(vol)
		if labelErr != nil {
			probeErrs = multierror.Append(probeErrs, fmt.Errorf("partition %d: %w", vol.Partition, labelErr))
			log.Debug().Int("partition", vol.Partition).Err(labelErr).Msg("no recognized filesystem")
		}

		sizeStr := "unknown"
		if vol.SectCount != bootvol.SectCountUnknown {
			sizeStr = humanize.Bytes(vol.SectCount * 512)
		}

		name := vol.PartName
		if label != "" {
			name = label
		}
		fmt.Printf("partition %-3d  %-12s  %s\n", vol.Partition, sizeStr, name)
	}

	if probeErrs != nil {
		probeErrs.ErrorFormat = func(errs []error) string {
			s := fmt.Sprintf("%d partition or filesystem probe error(s):", len(errs))
			for _, e := range errs {
				s += "\n  - " + e.Error()
			}
			return s
		}
		log.Warn().Msg(probeErrs.Error())
	}
	return nil
}
