// Package netstat reports whether the device has a usable network link.
// Association is left to the OS; this only observes the result.
package netstat

import (
	"net"
	"sync/atomic"
)

// Checker reports link state.
type Checker interface {
	Connected() bool
}

// Always is connected. Used by simulators and tests.
type Always struct{}

func (Always) Connected() bool { return true }

// Interface checks that a named interface is up and carries a non-loopback
// unicast address. An empty Name accepts any such interface.
type Interface struct {
	Name string

	// overridable for tests
	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

func (c Interface) Connected() bool {
	list := c.interfaces
	if list == nil {
		list = net.Interfaces
	}
	addrs := c.addrs
	if addrs == nil {
		addrs = func(i net.Interface) ([]net.Addr, error) { return i.Addrs() }
	}

	ifs, err := list()
	if err != nil {
		return false
	}
	for _, i := range ifs {
		if c.Name != "" && i.Name != c.Name {
			continue
		}
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}
		as, err := addrs(i)
		if err != nil {
			continue
		}
		for _, a := range as {
			if n, ok := a.(*net.IPNet); ok && n.IP.IsGlobalUnicast() {
				return true
			}
		}
	}
	return false
}

// Switch is a settable checker.
type Switch struct{ down atomic.Bool }

func (s *Switch) Connected() bool { return !s.down.Load() }

// Set changes the reported state.
func (s *Switch) Set(connected bool) { s.down.Store(!connected) }
