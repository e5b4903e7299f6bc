// Package drives enumerates mounted volumes with usage figures for the
// source-selection UI.
package drives

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// Info describes one mounted volume.
type Info struct {
	Letter  string  `json:"letter"`
	Total   string  `json:"total"`
	Used    string  `json:"used"`
	Free    string  `json:"free"`
	Percent float64 `json:"percent"`
}

// List returns the mounted physical volumes. Volumes that cannot be measured
// (e.g. recovery partitions) are skipped.
func List(logger *slog.Logger) ([]Info, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("enumerate partitions: %w", err)
	}

	infos := make([]Info, 0, len(partitions))
	for _, p := range partitions {
		if p.Fstype == "" || slices.Contains(p.Opts, "cdrom") {
			continue
		}

		usage, err := disk.Usage(p.Mountpoint)
		if err != nil {
			logger.Debug("skipping unreadable volume", "mountpoint", p.Mountpoint, "error", err)
			continue
		}

		infos = append(infos, Info{
			Letter:  volumeLetter(p),
			Total:   FormatBytes(usage.Total),
			Used:    FormatBytes(usage.Used),
			Free:    FormatBytes(usage.Free),
			Percent: usage.UsedPercent,
		})
	}
	return infos, nil
}

// volumeLetter derives the display identifier for a partition: the drive
// letter on Windows-style devices, otherwise the mountpoint.
func volumeLetter(p disk.PartitionStat) string {
	device := strings.TrimSuffix(p.Device, `\`)
	if len(device) == 2 && device[1] == ':' {
		return strings.ToUpper(device[:1])
	}
	return p.Mountpoint
}

// FormatBytes renders a byte count in a compact human-readable form.
func FormatBytes(count uint64) string {
	const unit = 1024
	if count < unit {
		return fmt.Sprintf("%d B", count)
	}
	value := float64(count)
	suffixes := []string{"KB", "MB", "GB", "TB", "PB"}
	for _, suffix := range suffixes {
		value /= unit
		if value < unit || suffix == suffixes[len(suffixes)-1] {
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%.1f B", value)
}
