package network

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const DefaultSysClassNet = "/sys/class/net"

var (
	preferredEthernet = []string{"eth0", "enp1s0", "enp2s0"}
	preferredWifi     = []string{"wlan0", "wlp1s0", "wlp2s0"}
)

type Interfaces struct {
	Ethernet string
	Wifi     string
}

// Discover picks the primary wired and the failover wireless interface from
// the entries under root (normally /sys/class/net). A configured wifi name
// wins when it exists.
func Discover(root, wifi string) Interfaces {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Interfaces{Wifi: wifi}
	}
	names := make([]string, 0, len(entries))
	exists := make(map[string]bool, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		exists[e.Name()] = true
	}
	sort.Strings(names)

	var res Interfaces
	for _, n := range preferredEthernet {
		if exists[n] {
			res.Ethernet = n
			break
		}
	}
	if res.Ethernet == "" {
		for _, n := range names {
			if strings.HasPrefix(n, "enx") {
				res.Ethernet = n
				break
			}
		}
	}
	if res.Ethernet == "" {
		for _, n := range names {
			if strings.HasPrefix(n, "eth") || (strings.HasPrefix(n, "en") && !isWireless(root, n)) {
				res.Ethernet = n
				break
			}
		}
	}

	if wifi != "" && exists[wifi] {
		res.Wifi = wifi
		return res
	}
	for _, n := range preferredWifi {
		if exists[n] {
			res.Wifi = n
			return res
		}
	}
	for _, n := range names {
		if strings.HasPrefix(n, "wlan") || strings.HasPrefix(n, "wlp") || isWireless(root, n) {
			res.Wifi = n
			return res
		}
	}
	return res
}

func isWireless(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, name, "wireless"))
	return err == nil
}
