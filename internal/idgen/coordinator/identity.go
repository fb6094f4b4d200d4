package coordinator

import (
	"fmt"
	"os"
)

// InstanceIdentity derives the identity token for this process from host and
// environment signals. It is computed once and stays the same for the process
// lifetime; it doubles as the lease-ownership value in the store and as input
// to the fallback hash.
//
// Container orchestrators set POD_NAME or HOSTNAME to a stable per-instance
// name, which keeps the fallback slot stable across restarts.
func InstanceIdentity() string {
	name := os.Getenv("POD_NAME")
	if name == "" {
		name = os.Getenv("HOSTNAME")
	}
	if name == "" {
		if host, err := os.Hostname(); err == nil {
			name = host
		} else {
			name = "unknown"
		}
	}

	return fmt.Sprintf("%s-%d", name, os.Getpid())
}
