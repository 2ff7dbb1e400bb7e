package battboot

import (
	"fmt"

	"github.com/google/gousb"
)

// USBDevice describes one device seen on the bus. Used only for
// diagnostics when the battery cannot be found.
type USBDevice struct {
	Bus     int
	Address int
	ID      string
}

// ListUSBDevices walks the USB bus and returns every attached device. No
// device is opened.
func ListUSBDevices() ([]USBDevice, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var found []USBDevice
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		found = append(found, USBDevice{
			Bus:     desc.Bus,
			Address: desc.Address,
			ID:      fmt.Sprintf("%s:%s", desc.Vendor, desc.Product),
		})
		return false
	})
	for _, dev := range devs {
		dev.Close()
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}
