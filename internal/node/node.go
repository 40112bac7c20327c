package node

import (
	"time"
)

// Status describes the reachability of a node or of one of its services.
type Status int

const (
	StatusOffline Status = iota
	StatusConnecting
	StatusOnline
	StatusSynchronizing
)

// String makes Status satisfy the fmt.Stringer interface.
func (s Status) String() string {
	switch s {
	case StatusOffline:
		return "Offline"
	case StatusConnecting:
		return "Connecting"
	case StatusOnline:
		return "Online"
	case StatusSynchronizing:
		return "Synchronizing"
	default:
		return "Unknown"
	}
}

// Service names used by the built-in providers. A provider registers its
// services at init time; keys are stable for the lifetime of the process.
const (
	ServiceRPC  = "RPC"
	ServiceZMQ  = "ZMQ"
	ServiceREST = "REST"
)

// LightningMetrics is the metrics payload for lightning backends. All
// fields are last-seen values; they are preserved across outages so the UI
// can show stale data instead of zeros.
type LightningMetrics struct {
	Alias            string
	Peers            uint32
	ActiveChannels   uint32
	PendingChannels  uint32
	InactiveChannels uint32
	TotalCapacitySat uint64
	LocalBalanceSat  uint64
	PendingHTLCs     uint32
}

// State is the complete view of one monitored node slot. It is a value
// type: applying an Update produces a new State and never mutates shared
// structures in place.
type State struct {
	Name    string
	Host    string
	Message string
	Status  Status

	Height       uint64
	HeaderHeight uint64
	BestHash     string

	// LastBlockAt is the instant the last new block was accepted, used by
	// the UI for the new-block flash. Zero until the first block arrives
	// after startup.
	LastBlockAt time.Time
	UpdatedAt   time.Time

	// Services maps service name to its own status. ServiceOrder records
	// insertion order so the status-line rotation is deterministic.
	Services     map[string]Status
	ServiceOrder []string

	// Lightning is non-nil for lightning backends only.
	Lightning *LightningMetrics
}

// NewState returns the initial state for a node slot: everything offline,
// no services registered yet.
func NewState(name string) State {
	return State{
		Name:     name,
		Status:   StatusOffline,
		Services: make(map[string]Status),
	}
}

// clone returns a copy whose reference fields are detached from the
// receiver, so Apply can write without aliasing the owner's current value.
func (s State) clone() State {
	c := s
	c.Services = make(map[string]Status, len(s.Services))
	for k, v := range s.Services {
		c.Services[k] = v
	}
	c.ServiceOrder = append([]string(nil), s.ServiceOrder...)
	if s.Lightning != nil {
		m := *s.Lightning
		c.Lightning = &m
	}
	return c
}

// setService records a service status, registering the name on first use.
func (s *State) setService(name string, status Status) {
	if _, ok := s.Services[name]; !ok {
		s.ServiceOrder = append(s.ServiceOrder, name)
	}
	s.Services[name] = status
}

// ServiceCount returns the number of registered services.
func (s State) ServiceCount() int {
	return len(s.ServiceOrder)
}

// ServiceAt returns the name and status of the i-th registered service,
// wrapping the index. ok is false when no services are registered.
func (s State) ServiceAt(i int) (name string, status Status, ok bool) {
	if len(s.ServiceOrder) == 0 {
		return "", StatusOffline, false
	}
	name = s.ServiceOrder[i%len(s.ServiceOrder)]
	return name, s.Services[name], true
}

// SyncLagKnown reports whether the node is known to be behind its header
// chain.
func (s State) SyncLagKnown() bool {
	return s.HeaderHeight > 0 && s.Height < s.HeaderHeight
}
