package bootstrap

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"reachgraph/internal/probe"
)

// checkTimeout bounds every external command and socket check
const checkTimeout = 2 * time.Second

// Host is the system surface the checks use
type Host struct {
	LookPath   func(file string) (string, error)
	Run        func(ctx context.Context, name string, args ...string) ([]byte, error)
	ListenICMP func(network string) error
	Dial       func(ctx context.Context, network, address string) (net.Conn, error)
	Interfaces func() ([]net.Interface, error)
	Geteuid    func() int
}

// SystemHost returns a Host backed by the operating system
func SystemHost() Host {
	return Host{
		LookPath: exec.LookPath,
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		ListenICMP: func(network string) error {
			conn, err := net.ListenPacket(network, "0.0.0.0")
			if err != nil {
				return err
			}
			return conn.Close()
		},
		Dial:       (&net.Dialer{}).DialContext,
		Interfaces: net.Interfaces,
		Geteuid:    os.Geteuid,
	}
}

// DetectPermissions records who the process runs as
func DetectPermissions(h Host) []Evidence {
	euid := h.Geteuid()
	return []Evidence{NewEvidence(
		CategoryPermissions,
		PropIsRoot,
		euid == 0,
		1.0,
		"syscall",
		fmt.Sprintf("effective uid %d", euid),
	)}
}

// DetectCapabilities checks every probe method's prerequisites
func DetectCapabilities(ctx context.Context, h Host) []Evidence {
	var evidence []Evidence
	evidence = append(evidence, probePing(ctx, h)...)
	evidence = append(evidence, probeRawSocket(h)...)
	evidence = append(evidence, probeNmap(ctx, h)...)
	evidence = append(evidence, probeTCP(ctx, h)...)
	return evidence
}

func probePing(ctx context.Context, h Host) []Evidence {
	icmp := probe.NewICMP()
	path, err := h.LookPath(icmp.Binary)
	if err != nil {
		return []Evidence{
			NewEvidence(CategoryCapability, PropHasPing, false, 0.95, "probe", "ping binary not found in PATH"),
			NewEvidence(CategoryCapability, PropCanICMPPing, false, 0.90, "probe", "ping binary not found in PATH"),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	args := icmp.Args("127.0.0.1", time.Second)
	_, err = h.Run(ctx, path, args...)
	success := err == nil

	method := "ping " + strings.Join(args, " ") + " succeeded"
	if !success {
		method = fmt.Sprintf("ping %s failed: %v", strings.Join(args, " "), err)
	}

	return []Evidence{
		NewEvidence(CategoryCapability, PropHasPing, true, 0.99, "probe", "found "+path).
			WithRaw(map[string]any{"ping_path": path}),
		NewEvidence(CategoryCapability, PropCanICMPPing, success, 0.95, "probe", method),
	}
}

func probeRawSocket(h Host) []Evidence {
	// Raw ICMP requires CAP_NET_RAW or root
	err := h.ListenICMP("ip4:icmp")
	if err == nil {
		return []Evidence{NewEvidence(
			CategoryCapability,
			PropCanRawSocket,
			true,
			0.95,
			"probe",
			"opened raw ICMP socket",
		)}
	}

	return []Evidence{NewEvidence(
		CategoryCapability,
		PropCanRawSocket,
		false,
		0.90,
		"probe",
		"raw ICMP socket refused: "+err.Error(),
	)}
}

func probeNmap(ctx context.Context, h Host) []Evidence {
	path, err := h.LookPath("nmap")
	if err != nil {
		return []Evidence{NewEvidence(
			CategoryCapability,
			PropHasNmap,
			false,
			0.95,
			"probe",
			"nmap not in PATH",
		)}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	output, err := h.Run(ctx, path, "--version")
	if err != nil {
		return []Evidence{NewEvidence(
			CategoryCapability,
			PropHasNmap,
			false,
			0.85,
			"probe",
			"nmap exists but --version failed: "+err.Error(),
		).WithRaw(map[string]any{"nmap_path": path})}
	}

	version := strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])

	return []Evidence{NewEvidence(
		CategoryCapability,
		PropHasNmap,
		true,
		0.99,
		"probe",
		version,
	).WithRaw(map[string]any{
		"nmap_path":    path,
		"nmap_version": version,
	})}
}

func probeTCP(ctx context.Context, h Host) []Evidence {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	// A refused connection still proves outbound TCP works
	conn, err := h.Dial(ctx, "tcp", "127.0.0.1:1")
	if err == nil {
		conn.Close()
	}
	ok := err == nil || probe.IsRefused(err)

	method := "dial 127.0.0.1:1 answered"
	if !ok {
		method = "dial 127.0.0.1:1 failed: " + err.Error()
	}
	return []Evidence{NewEvidence(CategoryCapability, PropCanTCPConnect, ok, 0.90, "probe", method)}
}

// DetectNetwork counts interfaces that are up and not loopback
func DetectNetwork(h Host) []Evidence {
	ifaces, err := h.Interfaces()
	if err != nil {
		return nil
	}

	var names []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		names = append(names, iface.Name)
	}

	return []Evidence{NewEvidence(
		CategoryNetwork,
		PropInterfaces,
		len(names),
		0.95,
		"syscall",
		"net.Interfaces()",
	).WithRaw(map[string]any{"names": names})}
}
