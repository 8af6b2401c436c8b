package spidev

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound    = errors.New("spidev device not found")
	ErrPermissionDenied  = errors.New("permission denied accessing spidev device")
	ErrDeviceInUse       = errors.New("spidev device already in use")
	ErrClosed            = errors.New("spidev device is closed")
	ErrInvalidDeviceName = errors.New("invalid spidev device name")
	ErrUnsupported       = errors.New("spidev is only available on linux")
)

var devDir = "/dev"

var (
	namePattern  = regexp.MustCompile(`^spidev(\d+)\.(\d+)$`)
	shortPattern = regexp.MustCompile(`^\d+\.\d+$`)
)

// DeviceInfo describes a spidev node
type DeviceInfo struct {
	Name        string
	Path        string
	Bus         int
	Chip        int
	Mode        Mode
	BitsPerWord uint8
	MaxSpeedHz  uint32
}

// DevicePath returns the node path for bus and chip.
func DevicePath(bus, chip int) string {
	return filepath.Join(devDir, fmt.Sprintf("spidev%d.%d", bus, chip))
}

// ParseName splits "spidevB.C", "/dev/spidevB.C" or "B.C" into bus and chip.
func ParseName(name string) (bus, chip int, err error) {
	base := filepath.Base(name)
	if shortPattern.MatchString(base) {
		base = "spidev" + base
	}
	m := namePattern.FindStringSubmatch(base)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDeviceName, name)
	}
	bus, _ = strconv.Atoi(m[1])
	chip, _ = strconv.Atoi(m[2])
	return bus, chip, nil
}

// ListDevices returns the spidev nodes present under /dev, sorted by bus then chip
func ListDevices() ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var devices []string
	for _, entry := range entries {
		name := entry.Name()
		if !namePattern.MatchString(name) {
			continue
		}
		fullPath := filepath.Join(devDir, name)
		if isCharacterDevice(fullPath) {
			devices = append(devices, fullPath)
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		bi, ci, _ := ParseName(devices[i])
		bj, cj, _ := ParseName(devices[j])
		if bi != bj {
			return bi < bj
		}
		return ci < cj
	})
	return devices, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// describe fills the name-derived fields of a DeviceInfo
func describe(path string) *DeviceInfo {
	info := &DeviceInfo{
		Name: filepath.Base(path),
		Path: path,
	}
	info.Bus, info.Chip, _ = ParseName(path)
	return info
}

// GetDeviceInfo returns the bus settings of a spidev node
func GetDeviceInfo(path string) (*DeviceInfo, error) {
	if !isCharacterDevice(path) {
		return nil, ErrDeviceNotFound
	}
	return Info(path)
}
