package media

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeResult holds the audio properties read by ffprobe
type ProbeResult struct {
	DurationSeconds int
	BitrateKbps     int
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// RunFFprobe executes ffprobe and parses the JSON output
func RunFFprobe(path string) (*ProbeResult, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	if parsed.Format.Duration != "" {
		if seconds, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			result.DurationSeconds = int(seconds)
		}
	}
	if parsed.Format.BitRate != "" {
		if bps, err := strconv.Atoi(parsed.Format.BitRate); err == nil {
			result.BitrateKbps = bps / 1000
		}
	}
	return result, nil
}
