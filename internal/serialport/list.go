package serialport

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

var (
	// Serial device names we consider communication-capable
	serialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
		regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
		regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
		regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
		regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
		regexp.MustCompile(`^ttySTM\d+$`), // STM32MP serial ports
	}

	// Virtual terminals and other non-serial devices
	excludePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^tty\d+$`),
		regexp.MustCompile(`^console$`),
		regexp.MustCompile(`^ptmx$`),
		regexp.MustCompile(`^pty.*$`),
	}
)

// isSerialName reports whether a /dev entry looks like a serial port
func isSerialName(name string) bool {
	for _, p := range excludePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	for _, p := range serialPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// ListPorts returns the serial ports found in /dev, sorted by path
func ListPorts() ([]string, error) {
	return listPortsIn("/dev")
}

func listPortsIn(devDir string) ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if !isSerialName(entry.Name()) {
			continue
		}
		fullPath := filepath.Join(devDir, entry.Name())
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// PortInfo describes a serial port
type PortInfo struct {
	Name         string
	Path         string
	Description  string
	IsUSB        bool
	VendorID     string
	ProductID    string
	SerialNumber string
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	infos, err := portInfos([]string{portPath})
	if err != nil {
		return nil, err
	}
	return infos[0], nil
}

// ListPortInfo returns information about every serial port
func ListPortInfo() ([]*PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	return portInfos(ports)
}

func portInfos(paths []string) ([]*PortInfo, error) {
	usb := usbDetails()

	infos := make([]*PortInfo, 0, len(paths))
	for _, path := range paths {
		if !isCharacterDevice(path) {
			return nil, ErrDeviceNotFound
		}
		name := filepath.Base(path)
		info := &PortInfo{
			Name:        name,
			Path:        path,
			Description: getPortDescription(name),
		}
		if d, ok := usb[path]; ok && d.IsUSB {
			info.IsUSB = true
			info.VendorID = strings.ToUpper(d.VID)
			info.ProductID = strings.ToUpper(d.PID)
			info.SerialNumber = d.SerialNumber
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// usbDetails indexes the enumerator's port details by device path. Missing
// USB metadata is not an error, the ports are still usable.
func usbDetails() map[string]*enumerator.PortDetails {
	details := make(map[string]*enumerator.PortDetails)
	list, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return details
	}
	for _, d := range list {
		details[d.Name] = d
	}
	return details
}

// DefaultPort picks a port when none is configured: the first USB port,
// otherwise the first port found.
func DefaultPort() (string, error) {
	infos, err := ListPortInfo()
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if info.IsUSB {
			return info.Path, nil
		}
	}
	for _, info := range infos {
		if strings.HasPrefix(info.Name, "ttyUSB") || strings.HasPrefix(info.Name, "ttyACM") {
			return info.Path, nil
		}
	}
	if len(infos) > 0 {
		return infos[0].Path, nil
	}
	return "", ErrDeviceNotFound
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySTM"):
		return "STM32 Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}
