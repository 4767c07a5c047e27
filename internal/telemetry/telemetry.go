// Package telemetry gathers device health metrics for the snapshot uploaded
// alongside photos. Every metric is sourced independently; a failing source
// degrades to a placeholder value instead of aborting the snapshot.
package telemetry

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Unavailable is the placeholder written for a metric whose source failed.
const Unavailable = "N/A"

// Snapshot is the device-health record mirrored to network storage as
// pi_stats.json. It fully replaces the previous snapshot on every write.
type Snapshot struct {
	Timestamp         string `json:"timestamp"`
	MotionEventsToday int    `json:"motion_events_today"`
	CPUTemp           string `json:"cpu_temp"`
	Uptime            string `json:"uptime"`
	DiskFree          string `json:"disk_free"`
	DiskPct           string `json:"disk_pct"`
	WiFiSignal        string `json:"wifi_signal"`
}

// Collector reads health metrics from the usual Linux sources. The paths are
// fields so tests can point them at fixtures.
type Collector struct {
	ThermalPath  string
	UptimePath   string
	WirelessPath string
	DiskMount    string
	WiFiIface    string
}

// NewCollector returns a collector wired to the standard Raspberry Pi
// locations.
func NewCollector(diskMount string) *Collector {
	if strings.TrimSpace(diskMount) == "" {
		diskMount = "/home"
	}
	return &Collector{
		ThermalPath:  "/sys/class/thermal/thermal_zone0/temp",
		UptimePath:   "/proc/uptime",
		WirelessPath: "/proc/net/wireless",
		DiskMount:    diskMount,
		WiFiIface:    "wlan0",
	}
}

// Collect builds a fresh snapshot. It never fails; individual metric
// failures yield Unavailable for that field only.
func (c *Collector) Collect(now time.Time, motionToday int) Snapshot {
	return Snapshot{
		Timestamp:         now.Format(time.RFC3339),
		MotionEventsToday: motionToday,
		CPUTemp:           c.cpuTemp(),
		Uptime:            c.uptime(),
		DiskFree:          c.diskFree(),
		DiskPct:           c.diskPct(),
		WiFiSignal:        c.wifiSignal(),
	}
}

func (c *Collector) cpuTemp() string {
	data, err := os.ReadFile(c.ThermalPath)
	if err != nil {
		return Unavailable
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Unavailable
	}
	return fmt.Sprintf("%.1f C", float64(milli)/1000)
}

func (c *Collector) uptime() string {
	data, err := os.ReadFile(c.UptimePath)
	if err != nil {
		return Unavailable
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return Unavailable
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || seconds < 0 {
		return Unavailable
	}
	return formatUptime(time.Duration(seconds) * time.Second)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	return strings.Join(parts, ", ")
}

func (c *Collector) statfs() (unix.Statfs_t, error) {
	var stat unix.Statfs_t
	err := unix.Statfs(c.DiskMount, &stat)
	return stat, err
}

func (c *Collector) diskFree() string {
	stat, err := c.statfs()
	if err != nil {
		return Unavailable
	}
	return formatBytes(stat.Bavail * uint64(stat.Bsize))
}

func (c *Collector) diskPct() string {
	stat, err := c.statfs()
	if err != nil || stat.Blocks == 0 {
		return Unavailable
	}
	used := stat.Blocks - stat.Bfree
	pct := float64(used) / float64(stat.Blocks) * 100
	return fmt.Sprintf("%.0f%%", pct)
}

func formatBytes(b uint64) string {
	const unit = 1024
	switch {
	case b >= unit*unit*unit*unit:
		return fmt.Sprintf("%.1fT", float64(b)/(unit*unit*unit*unit))
	case b >= unit*unit*unit:
		return fmt.Sprintf("%.1fG", float64(b)/(unit*unit*unit))
	case b >= unit*unit:
		return fmt.Sprintf("%.1fM", float64(b)/(unit*unit))
	case b >= unit:
		return fmt.Sprintf("%.1fK", float64(b)/unit)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// wifiSignal parses the interface's signal level out of /proc/net/wireless.
// Format: "wlan0: 0000   54.  -56.  -256        0 ..." where the fourth
// column is the signal level in dBm.
func (c *Collector) wifiSignal() string {
	data, err := os.ReadFile(c.WirelessPath)
	if err != nil {
		return Unavailable
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, c.WiFiIface+":") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 4 {
			return Unavailable
		}
		level := strings.TrimSuffix(fields[3], ".")
		if _, err := strconv.ParseFloat(level, 64); err != nil {
			return Unavailable
		}
		return level + " dBm"
	}
	return Unavailable
}
