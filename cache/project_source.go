package cache

import (
	"fmt"

	"github.com/hausnet/knxnetip/address"
)

// GroupAddressInfo is one entry of a project's group-address table, as
// described by a ProjectSource.
type GroupAddressInfo struct {
	Address    string // "M/I/S"
	Name       string
	DPT        string
	Central    bool
	Unfiltered bool
}

// Topology is a project's device tree: area -> line -> device names, used
// only by the read-flag-filtering helper that selects which group
// addresses may be hydrated from a particular set of lines.
type Topology struct {
	Areas map[string]Area
}

// Area is one topology area, keyed by line name.
type Area struct {
	Lines map[string]Line
}

// Line is one topology line, keyed by device name.
type Line struct {
	Devices map[string]struct{}
}

// ProjectSource is the external collaborator that imports a vendor project
// export (e.g. an ETS XML file) and exposes its group-address table. This
// package only consumes GroupAddresses; Topology and UnassignedDevices are
// carried for callers that need them but are not required to build a Cache.
type ProjectSource interface {
	GroupAddresses() (map[string]GroupAddressInfo, error)
	Topology() (Topology, error)
	UnassignedDevices() ([]string, error)
}

// NewFromProjectSource builds a Cache from a ProjectSource snapshot, one
// entry per group address the project defines.
func NewFromProjectSource(src ProjectSource) (*Cache, error) {
	gas, err := src.GroupAddresses()
	if err != nil {
		return nil, fmt.Errorf("cache: reading project source: %w", err)
	}
	inline := make(map[string]string, len(gas))
	names := make(map[string]string, len(gas))
	for _, info := range gas {
		inline[info.Address] = info.DPT
		names[info.Address] = info.Name
	}
	c, err := New(inline)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for gaStr, name := range names {
		ga, err := address.ParseGroupAddress(gaStr)
		if err != nil {
			continue
		}
		if ptr, ok := c.entries[ga]; ok {
			e := *ptr.Load()
			e.Name = name
			ptr.Store(&e)
		}
	}
	c.mu.Unlock()
	return c, nil
}
