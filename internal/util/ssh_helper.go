package util

import (
	"fmt"
	"io"
	"net"

	log "github.com/sirupsen/logrus"
)

// outboundIP retrieves the preferred outbound IP address of this machine.
// It uses a UDP "connection" to a public DNS server, which sends no packets,
// to learn which local address the kernel would route through.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Warnf("Failed to close UDP connection: %v", closeErr)
		}
	}()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("could not assert UDP address type")
	}
	return localAddr.IP.String(), nil
}

// GetIPAddress returns the machine's outbound IP address, or 127.0.0.1 when it cannot be determined.
func GetIPAddress() string {
	ip, err := outboundIP()
	if err != nil {
		log.Debugf("Failed to detect outbound IP: %v", err)
		return "127.0.0.1"
	}
	return ip
}

// PrintSSHTunnelInstructions writes SSH port-forwarding instructions for the loopback
// callback port, for users completing the browser step on a different machine.
func PrintSSHTunnelInstructions(w io.Writer, port int) {
	ipAddress := GetIPAddress()
	border := "================================================================================"
	_, _ = fmt.Fprintln(w, "To authenticate from a remote machine, an SSH tunnel may be required.")
	_, _ = fmt.Fprintln(w, border)
	_, _ = fmt.Fprintln(w, "  Run the following command on the machine running the browser:")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  ssh -L %d:127.0.0.1:%d <user>@%s\n", port, port, ipAddress)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "  Keep the tunnel open until the login completes.")
	_, _ = fmt.Fprintln(w, border)
}
