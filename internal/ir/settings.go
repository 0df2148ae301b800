package ir

import (
	"errors"
	"fmt"
)

// DeviceType is the class of the local device.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
)

// ValidDeviceTypes defines the allowed device types.
var ValidDeviceTypes = map[DeviceType]bool{
	DeviceDesktop: true,
	DeviceMobile:  true,
	DeviceTablet:  true,
}

// Settings describe the local device for one sync cycle. They are supplied
// by the caller and never mutated by the engine.
type Settings struct {
	// ClientID is stable across syncs and is this device's record id.
	ClientID string `json:"client_id" yaml:"client_id"`

	// Name should match the device name shown in the account's device list.
	Name string `json:"name" yaml:"name"`

	Type DeviceType `json:"type" yaml:"type"`

	// FxaDeviceID links the record to the account device manager.
	FxaDeviceID string `json:"fxa_device_id" yaml:"fxa_device_id"`
}

// Validate checks that the settings can produce a record.
func (s Settings) Validate() error {
	if s.ClientID == "" {
		return errors.New("client id is required")
	}
	if s.Name == "" {
		return errors.New("device name is required")
	}
	if !ValidDeviceTypes[s.Type] {
		return fmt.Errorf("invalid device type %q", s.Type)
	}
	return nil
}

// Record builds this device's own client record. The command list always
// starts empty.
func (s Settings) Record() Client {
	return Client{
		ID:          s.ClientID,
		Name:        s.Name,
		Type:        string(s.Type),
		FxaDeviceID: s.FxaDeviceID,
		Protocols:   []string{ProtocolVersion},
	}
}
