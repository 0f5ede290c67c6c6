// Package device discovers USB-attached iOS devices through Frida and reaches their
// filesystem over SSH.
package device

import (
	"fmt"
	"sync"

	"github.com/frida/frida-go/frida"
	"github.com/go-viper/mapstructure/v2"
)

// Device represents a Frida device.
type Device struct {
	device frida.DeviceInt

	Access    string // Access can be "full" or "limited".
	Platform  string // Platform can be "darwin", "linux", etc..
	Arch      string // Arch can be "arm64", "x86_64", etc..
	OS        string // OS can be "ios", "android", etc..
	OSVersion string // OSVersion is the operating system version, e.g. "16.5".
}

var (
	deviceManager     *frida.DeviceManager
	deviceManagerOnce sync.Once
)

// FindDevice returns the first available USB device.
func FindDevice() (*Device, error) {
	// Initialize device manager, if not done already
	deviceManagerOnce.Do(func() {
		deviceManager = frida.NewDeviceManager()
	})

	if deviceManager == nil {
		return nil, fmt.Errorf("device manager unavailable")
	}

	// Find proper device
	devices, err := deviceManager.EnumerateDevices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	var device frida.DeviceInt

	for _, dev := range devices {
		if dev.DeviceType() == frida.DeviceTypeUsb {
			device = dev
			break
		}
	}

	if device == nil {
		return nil, fmt.Errorf("no device found")
	}

	// Get device parameters
	var params struct {
		Access   string `mapstructure:"access"`
		Platform string `mapstructure:"platform"`
		Arch     string `mapstructure:"arch"`
		OS       struct {
			ID      string `mapstructure:"id"`
			Version string `mapstructure:"version"`
		} `mapstructure:"os"`
	}

	ps, err := device.Params()
	if err != nil {
		return nil, fmt.Errorf("get device parameters: %w", err)
	}

	err = mapstructure.Decode(ps, &params)
	if err != nil {
		return nil, fmt.Errorf("decode device parameters: %w", err)
	}

	return &Device{
		device:    device,
		Access:    params.Access,
		Platform:  params.Platform,
		Arch:      params.Arch,
		OS:        params.OS.ID,
		OSVersion: params.OS.Version,
	}, nil
}

// Jailbroken reports whether the device is a jailbroken 64-bit iOS device.
func (dev *Device) Jailbroken() bool {
	return (dev.Access == "full") && (dev.Platform == "darwin") && (dev.OS == "ios") && (dev.Arch == "arm64")
}
