//go:build linux

package sysfs

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// ReadLine returns the first line of a file with surrounding whitespace
// trimmed. Kernel attribute files are single-line ASCII, so one Scan is
// all we ever need.
func ReadLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", ErrEmpty
	}
	return strings.TrimSpace(sc.Text()), nil
}

// ReadInt parses a single-line integer attribute file. Sensor values may
// be negative (current can flow both ways on a shunt), so the full int64
// range is accepted.
func ReadInt(path string) (int64, error) {
	line, err := ReadLine(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// Exists reports whether a path is present. Discovery uses this to decide
// which of the driver naming conventions a device actually exposes.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether a path exists and is a directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
