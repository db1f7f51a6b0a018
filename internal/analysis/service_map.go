// Package analysis holds small lookups used to annotate flow inputs.
package analysis

import "strconv"

// servicePorts covers the services that show up in IoT flow captures.
var servicePorts = map[int]string{
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	53:    "DNS",
	67:    "DHCP",
	80:    "HTTP",
	123:   "NTP",
	443:   "HTTPS",
	1883:  "MQTT",
	5683:  "CoAP",
	5684:  "CoAPS",
	8080:  "HTTP-Alt",
	8883:  "MQTT-TLS",
	47808: "BACnet",
}

// ServiceName returns the well-known service for port and whether one is known.
func ServiceName(port int) (string, bool) {
	name, ok := servicePorts[port]
	return name, ok
}

// PortLabel renders a port with its service name, e.g. "1883 (MQTT)".
func PortLabel(port int) string {
	if name, ok := servicePorts[port]; ok {
		return strconv.Itoa(port) + " (" + name + ")"
	}
	return strconv.Itoa(port)
}
