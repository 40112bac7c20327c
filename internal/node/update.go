package node

import (
	"time"
)

// Update is a self-describing state transition for one node slot. Concrete
// updates are plain data: they carry the results of a provider's own I/O
// and nothing else, so they can cross goroutine boundaries freely and be
// asserted on in tests. Apply returns the successor state; it must not
// mutate prev's reference fields.
type Update interface {
	Apply(prev State, now time.Time) State
}

// Init announces a provider starting up. It names the node, registers its
// services (all offline), and installs the initial diagnostic message.
type Init struct {
	Name     string
	Host     string
	Message  string
	Services []string
	// Lightning preallocates the metrics payload for lightning backends.
	Lightning bool
}

// Apply implements Update.
func (u Init) Apply(prev State, now time.Time) State {
	s := prev.clone()
	s.Name = u.Name
	s.Host = u.Host
	s.Message = u.Message
	for _, svc := range u.Services {
		s.setService(svc, StatusOffline)
	}
	if u.Lightning && s.Lightning == nil {
		s.Lightning = &LightningMetrics{}
	}
	s.UpdatedAt = now
	return s
}

// PollStarted marks the beginning of a poll cycle on a service. It only
// promotes an Offline node to Connecting; a node that is already Online
// stays Online while the poll is in flight.
type PollStarted struct {
	Service string
}

// Apply implements Update.
func (u PollStarted) Apply(prev State, now time.Time) State {
	if prev.Status != StatusOffline {
		return prev
	}
	s := prev.clone()
	s.Status = StatusConnecting
	s.setService(u.Service, StatusConnecting)
	s.UpdatedAt = now
	return s
}

// ChainInfo carries the result of a successful chain-info poll from a full
// node. Height and Headers derive the overall status; the height guard and
// the new-block instant live here, in the single owner, not in the
// provider.
type ChainInfo struct {
	Service string
	Height  uint64
	Headers uint64
	BestHash string
	// FeedService names the push-feed service, if the provider has one.
	// When the feed is not online, a height increase seen by polling also
	// triggers the new-block flash.
	FeedService string
}

// Apply implements Update.
func (u ChainInfo) Apply(prev State, now time.Time) State {
	s := prev.clone()

	status := StatusOnline
	if u.Height < u.Headers {
		status = StatusSynchronizing
	}

	feedOnline := false
	if u.FeedService != "" {
		feedOnline = s.Services[u.FeedService] == StatusOnline
	}
	if !feedOnline && s.Height > 0 && u.Height > s.Height {
		s.LastBlockAt = now
	}

	// Height is monotonic: a poll that reports less than we hold is stale
	// and its height and hash are ignored.
	if u.Height >= s.Height {
		s.Height = u.Height
		s.BestHash = u.BestHash
	}
	if u.Headers > s.HeaderHeight {
		s.HeaderHeight = u.Headers
	}

	s.Status = status
	s.Message = ""
	s.setService(u.Service, status)
	s.UpdatedAt = now
	return s
}

// PollFailed records a failed poll. The polled service goes offline and so
// does the overall status; services listed in ForceOffline are dragged down
// with it (a push feed cannot be trusted once the node is unreachable).
// Metrics and chain fields keep their last known values.
type PollFailed struct {
	Service      string
	ForceOffline []string
	Message      string
}

// Apply implements Update.
func (u PollFailed) Apply(prev State, now time.Time) State {
	s := prev.clone()
	s.Status = StatusOffline
	s.Message = u.Message
	s.setService(u.Service, StatusOffline)
	for _, svc := range u.ForceOffline {
		s.setService(svc, StatusOffline)
	}
	s.UpdatedAt = now
	return s
}

// ServiceStatus is a transition of a single service, reported by transport
// events (push-feed connect/disconnect). It never touches the overall
// status: only poll results decide whether the node as a whole is up.
type ServiceStatus struct {
	Service string
	Status  Status
}

// Apply implements Update.
func (u ServiceStatus) Apply(prev State, now time.Time) State {
	s := prev.clone()
	s.setService(u.Service, u.Status)
	s.UpdatedAt = now
	return s
}

// NewBlock is a block announcement from the push feed. Delivery is
// idempotent per hash: only a hash different from the current best one
// advances the height.
type NewBlock struct {
	Hash string
}

// Apply implements Update.
func (u NewBlock) Apply(prev State, now time.Time) State {
	if u.Hash == prev.BestHash {
		return prev
	}
	s := prev.clone()
	s.Height++
	s.BestHash = u.Hash
	s.LastBlockAt = now
	s.UpdatedAt = now
	return s
}

// LightningInfo carries the result of a successful lightning poll. The
// provider decides between Online and Synchronizing from the backend's
// sync flags; the height guard stays here.
type LightningInfo struct {
	Service string
	Status  Status
	Height  uint64
	Message string
	Metrics LightningMetrics
}

// Apply implements Update.
func (u LightningInfo) Apply(prev State, now time.Time) State {
	s := prev.clone()

	if s.Height > 0 && u.Height > s.Height {
		s.LastBlockAt = now
	}
	if u.Height >= s.Height {
		s.Height = u.Height
	}

	s.Status = u.Status
	s.Message = u.Message
	m := u.Metrics
	s.Lightning = &m
	s.setService(u.Service, u.Status)
	s.UpdatedAt = now
	return s
}
