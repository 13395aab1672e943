// Package util holds small formatting and file helpers shared by the CLI and the loader.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// FileDigest is the size and SHA-256 of a file
type FileDigest struct {
	SizeBytes int64
	SHA256    string
}

// CalculateFileChecksum calculates the SHA256 checksum for a file.
func CalculateFileChecksum(filePath string) (string, error) {
	digest, err := DigestFile(filePath)
	if err != nil {
		return "", err
	}

	return digest.SHA256, nil
}

// DigestFile reads a file once and returns its size and checksum
func DigestFile(filePath string) (FileDigest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return FileDigest{}, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, file)
	if err != nil {
		return FileDigest{}, errors.Wrap(err, "failed to calculate checksum")
	}

	return FileDigest{SizeBytes: size, SHA256: hex.EncodeToString(hash.Sum(nil))}, nil
}

// FormatBytes formats bytes into human readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	const units = "KMGTPEZY"
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < len(units)-1; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), units[exp])
}

// FormatDuration formats a travel time as "1h30m", "5m10s" or "45s".
func FormatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)

	switch {
	case duration < time.Minute:
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	case duration < time.Hour:
		return fmt.Sprintf("%dm%ds", int(duration.Minutes()), int(duration.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(duration.Hours()), int(duration.Minutes())%60)
	}
}

// FormatDistance prints meters below one kilometer and kilometers with one decimal above
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}

	return fmt.Sprintf("%.1f km", meters/1000)
}
