package instance

import "os"

// GetID identifies this process in logs. Deploys set VOYAGO_INSTANCE_ID;
// otherwise the hostname stands in, with a static fallback for bare shells.
func GetID() string {
	if id := os.Getenv("VOYAGO_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "voyago-0"
}
