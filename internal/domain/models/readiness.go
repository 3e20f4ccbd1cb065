package models

import "time"

// Device identifies one endpoint whose readiness is surfaced to other processes.
type Device string

const (
	DevicePOS     Device = "pos"
	DevicePrinter Device = "printer"
	DeviceSwitch  Device = "switch"
)

// Bus topics shared by both processes.
const (
	TopicPOSInit     = "pos/init"
	TopicPrinterInit = "printer/init"
	TopicSwitchInit  = "switch/init"
	TopicPOSBilling  = "pos/billing"
)

// Topic returns the readiness topic of the device.
func (d Device) Topic() string {
	return string(d) + "/init"
}

// ReadinessStatus is the last known readiness of one device.
type ReadinessStatus struct {
	Device Device    `json:"device"`
	Ready  bool      `json:"ready"`
	Reason string    `json:"reason,omitempty"` // Why the device is not ready, empty when ready
	Local  bool      `json:"local"`            // Reported by this process rather than observed on the bus
	At     time.Time `json:"at"`
}
