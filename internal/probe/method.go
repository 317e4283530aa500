package probe

import (
	"fmt"
	"sort"
)

// Method names accepted by NewPrimitive
const (
	MethodICMP = "icmp"
	MethodTCP  = "tcp"
	MethodNmap = "nmap"
	MethodSTUN = "stun"
)

// Options carries primitive-specific settings
type Options struct {
	TCPPorts []int
	STUNPort int
}

var constructors = map[string]func(Options) Primitive{
	MethodICMP: func(Options) Primitive { return NewICMP() },
	MethodTCP:  func(o Options) Primitive { return NewTCP(o.TCPPorts) },
	MethodNmap: func(Options) Primitive { return NewNmap() },
	MethodSTUN: func(o Options) Primitive { return NewSTUN(o.STUNPort) },
}

// Methods returns the supported method names, sorted
func Methods() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsMethod reports whether name is a supported method
func IsMethod(name string) bool {
	_, ok := constructors[name]
	return ok
}

// NewPrimitive returns the primitive registered under method
func NewPrimitive(method string, opts Options) (Primitive, error) {
	ctor, ok := constructors[method]
	if !ok {
		return nil, fmt.Errorf("unknown probe method %q (supported: %v)", method, Methods())
	}
	return ctor(opts), nil
}
