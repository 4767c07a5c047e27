package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixtureCollector(t *testing.T) *Collector {
	t.Helper()
	dir := t.TempDir()

	thermal := filepath.Join(dir, "temp")
	if err := os.WriteFile(thermal, []byte("48256\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	uptime := filepath.Join(dir, "uptime")
	if err := os.WriteFile(uptime, []byte("266716.53 1041542.84\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wireless := filepath.Join(dir, "wireless")
	content := `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
 wlan0: 0000   54.  -56.  -256        0      0      0      0    123        0
`
	if err := os.WriteFile(wireless, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return &Collector{
		ThermalPath:  thermal,
		UptimePath:   uptime,
		WirelessPath: wireless,
		DiskMount:    dir,
		WiFiIface:    "wlan0",
	}
}

func TestCollectReadsAllSources(t *testing.T) {
	c := fixtureCollector(t)
	now := time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC)

	snap := c.Collect(now, 7)

	if snap.Timestamp != now.Format(time.RFC3339) {
		t.Fatalf("timestamp: %q", snap.Timestamp)
	}
	if snap.MotionEventsToday != 7 {
		t.Fatalf("motion events: %d", snap.MotionEventsToday)
	}
	if snap.CPUTemp != "48.3 C" {
		t.Fatalf("cpu temp: %q", snap.CPUTemp)
	}
	// 266716s = 3 days, 2 hours, 5 minutes.
	if snap.Uptime != "3 days, 2 hours, 5 minutes" {
		t.Fatalf("uptime: %q", snap.Uptime)
	}
	if snap.WiFiSignal != "-56 dBm" {
		t.Fatalf("wifi signal: %q", snap.WiFiSignal)
	}
	if snap.DiskFree == Unavailable || snap.DiskPct == Unavailable {
		t.Fatalf("disk metrics unavailable: %q %q", snap.DiskFree, snap.DiskPct)
	}
	if !strings.HasSuffix(snap.DiskPct, "%") {
		t.Fatalf("disk pct format: %q", snap.DiskPct)
	}
}

func TestCollectIsolatesFailures(t *testing.T) {
	c := fixtureCollector(t)
	c.ThermalPath = filepath.Join(t.TempDir(), "missing")
	c.WirelessPath = filepath.Join(t.TempDir(), "missing")

	snap := c.Collect(time.Now(), 0)

	if snap.CPUTemp != Unavailable {
		t.Fatalf("cpu temp should be placeholder: %q", snap.CPUTemp)
	}
	if snap.WiFiSignal != Unavailable {
		t.Fatalf("wifi should be placeholder: %q", snap.WiFiSignal)
	}
	// The other sources still resolve.
	if snap.Uptime == Unavailable {
		t.Fatal("uptime should still resolve")
	}
	if snap.DiskFree == Unavailable {
		t.Fatal("disk free should still resolve")
	}
}

func TestCollectBadThermalContent(t *testing.T) {
	c := fixtureCollector(t)
	if err := os.WriteFile(c.ThermalPath, []byte("warm"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := c.Collect(time.Now(), 0).CPUTemp; got != Unavailable {
		t.Fatalf("expected placeholder for bad thermal data, got %q", got)
	}
}

func TestWiFiInterfaceNotListed(t *testing.T) {
	c := fixtureCollector(t)
	c.WiFiIface = "wlan1"
	if got := c.Collect(time.Now(), 0).WiFiSignal; got != Unavailable {
		t.Fatalf("expected placeholder for absent interface, got %q", got)
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Minute, "5 minutes"},
		{90 * time.Minute, "1 hours, 30 minutes"},
		{26*time.Hour + 10*time.Minute, "1 days, 2 hours, 10 minutes"},
		{0, "0 minutes"},
	}
	for _, tc := range cases {
		if got := formatUptime(tc.d); got != tc.want {
			t.Fatalf("formatUptime(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512B"},
		{2048, "2.0K"},
		{5 * 1024 * 1024, "5.0M"},
		{12 * 1024 * 1024 * 1024, "12.0G"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
