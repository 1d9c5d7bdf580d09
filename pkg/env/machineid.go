package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID keys the application specific machine ID.
const AppID = "wavedac"

// DeviceID returns a short ID (at most 12 characters) identifying this
// machine's device bridge. The raw machine ID is never exposed. The host
// name is used if the machine ID is unavailable.
func DeviceID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine ID unavailable: %v", err)
		if id, err = os.Hostname(); err != nil || id == "" {
			return AppID
		}
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
