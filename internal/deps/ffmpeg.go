package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// ProbeVersions runs "<binary> -version" for every available status and
// records the first output line. A binary that resolves but cannot run is
// marked unavailable.
func ProbeVersions(ctx context.Context, statuses []Status) []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	for i := range out {
		if !out[i].Available {
			continue
		}
		version, err := readVersion(ctx, out[i].Path)
		if err != nil {
			out[i].Available = false
			out[i].Detail = fmt.Sprintf("%s -version failed: %v", out[i].Command, err)
			continue
		}
		out[i].Version = version
	}
	return out
}

func readVersion(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-version")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(&stdout)
	if scanner.Scan() {
		return shortVersion(scanner.Text()), nil
	}
	return "", nil
}

// shortVersion trims "ffmpeg version 6.1.1-3ubuntu5 Copyright ..." down to
// "6.1.1-3ubuntu5".
func shortVersion(line string) string {
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(line)
}
