package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

// AppID keys the protected machine ID.
const AppID = "debugport"

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	return machineid.ID()
}

// DeviceID returns a stable ID for this device derived from the machine ID
// without exposing it. The host name is used when no machine ID is available.
func DeviceID() string {
	if id, err := machineid.ProtectedID(AppID); err == nil && id != "" {
		return id[:16]
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return AppID
}
