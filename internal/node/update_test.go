package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyAll(s State, now time.Time, updates ...Update) State {
	for _, u := range updates {
		s = u.Apply(s, now)
	}
	return s
}

func TestInitRegistersServices(t *testing.T) {
	now := time.Now()
	s := Init{
		Name:     "core",
		Host:     "localhost",
		Message:  "Connecting...",
		Services: []string{ServiceRPC, ServiceZMQ},
	}.Apply(NewState("core"), now)

	assert.Equal(t, StatusOffline, s.Status)
	assert.Equal(t, []string{ServiceRPC, ServiceZMQ}, s.ServiceOrder)
	assert.Equal(t, StatusOffline, s.Services[ServiceRPC])
	assert.Equal(t, "Connecting...", s.Message)
	assert.Nil(t, s.Lightning)
}

func TestInitPreallocatesLightningMetrics(t *testing.T) {
	s := Init{Name: "ln", Services: []string{ServiceREST}, Lightning: true}.
		Apply(NewState("ln"), time.Now())
	require.NotNil(t, s.Lightning)
	assert.Zero(t, *s.Lightning)
}

func TestPollStartedOnlyPromotesOffline(t *testing.T) {
	now := time.Now()
	s := PollStarted{Service: ServiceRPC}.Apply(NewState("core"), now)
	assert.Equal(t, StatusConnecting, s.Status)

	// An online node stays online while a poll is in flight.
	s.Status = StatusOnline
	s = PollStarted{Service: ServiceRPC}.Apply(s, now)
	assert.Equal(t, StatusOnline, s.Status)

	s.Status = StatusSynchronizing
	s = PollStarted{Service: ServiceRPC}.Apply(s, now)
	assert.Equal(t, StatusSynchronizing, s.Status)
}

func TestChainInfoFullySyncedIsOnline(t *testing.T) {
	s := ChainInfo{Service: ServiceRPC, Height: 100, Headers: 100, BestHash: "aa"}.
		Apply(NewState("core"), time.Now())

	assert.Equal(t, StatusOnline, s.Status)
	assert.Equal(t, uint64(100), s.Height)
	assert.Equal(t, uint64(100), s.HeaderHeight)
	assert.Equal(t, "aa", s.BestHash)
	assert.False(t, s.SyncLagKnown())
}

func TestChainInfoBehindHeadersIsSynchronizing(t *testing.T) {
	s := ChainInfo{Service: ServiceRPC, Height: 50, Headers: 100}.
		Apply(NewState("core"), time.Now())

	assert.Equal(t, StatusSynchronizing, s.Status)
	assert.True(t, s.SyncLagKnown())
}

func TestChainInfoHeightIsMonotonic(t *testing.T) {
	now := time.Now()
	s := applyAll(NewState("core"), now,
		ChainInfo{Service: ServiceRPC, Height: 100, Headers: 100, BestHash: "aa"},
		// A stale poll result must not move the height backwards.
		ChainInfo{Service: ServiceRPC, Height: 99, Headers: 100, BestHash: "old"},
	)

	assert.Equal(t, uint64(100), s.Height)
	assert.Equal(t, "aa", s.BestHash)
}

func TestChainInfoFlashesOnlyWhenFeedIsDown(t *testing.T) {
	base := time.Now()
	s := ChainInfo{Service: ServiceRPC, Height: 100, Headers: 100, FeedService: ServiceZMQ}.
		Apply(NewState("core"), base)
	require.True(t, s.LastBlockAt.IsZero())

	// Feed offline: a height increase seen by polling flashes.
	later := base.Add(time.Minute)
	s2 := ChainInfo{Service: ServiceRPC, Height: 101, Headers: 101, FeedService: ServiceZMQ}.
		Apply(s, later)
	assert.Equal(t, later, s2.LastBlockAt)

	// Feed online: the feed owns block announcements, polling does not flash.
	s.Services[ServiceZMQ] = StatusOnline
	s3 := ChainInfo{Service: ServiceRPC, Height: 101, Headers: 101, FeedService: ServiceZMQ}.
		Apply(s, later)
	assert.True(t, s3.LastBlockAt.IsZero())
}

func TestPollFailedForcesListedServicesOffline(t *testing.T) {
	now := time.Now()
	s := applyAll(NewState("core"), now,
		Init{Name: "core", Services: []string{ServiceRPC, ServiceZMQ}},
		ChainInfo{Service: ServiceRPC, Height: 100, Headers: 100, BestHash: "aa"},
		ServiceStatus{Service: ServiceZMQ, Status: StatusOnline},
		PollFailed{Service: ServiceRPC, ForceOffline: []string{ServiceZMQ}, Message: "RPC unreachable"},
	)

	assert.Equal(t, StatusOffline, s.Status)
	assert.Equal(t, StatusOffline, s.Services[ServiceRPC])
	assert.Equal(t, StatusOffline, s.Services[ServiceZMQ])
	assert.Equal(t, "RPC unreachable", s.Message)
	// Chain data survives the outage.
	assert.Equal(t, uint64(100), s.Height)
	assert.Equal(t, "aa", s.BestHash)
}

func TestServiceStatusNeverTouchesOverallStatus(t *testing.T) {
	now := time.Now()
	s := applyAll(NewState("core"), now,
		ChainInfo{Service: ServiceRPC, Height: 100, Headers: 100},
	)
	require.Equal(t, StatusOnline, s.Status)

	s = ServiceStatus{Service: ServiceZMQ, Status: StatusOffline}.Apply(s, now)
	assert.Equal(t, StatusOnline, s.Status)
	assert.Equal(t, StatusOffline, s.Services[ServiceZMQ])

	s = ServiceStatus{Service: ServiceZMQ, Status: StatusOnline}.Apply(s, now)
	assert.Equal(t, StatusOnline, s.Status)
}

func TestNewBlockAdvancesHeightOncePerHash(t *testing.T) {
	now := time.Now()
	s := applyAll(NewState("core"), now,
		ChainInfo{Service: ServiceRPC, Height: 100, Headers: 100, BestHash: "aa"},
	)

	s = NewBlock{Hash: "bb"}.Apply(s, now)
	assert.Equal(t, uint64(101), s.Height)
	assert.Equal(t, "bb", s.BestHash)
	assert.Equal(t, now, s.LastBlockAt)

	// Redelivery of the same hash is a no-op.
	s = NewBlock{Hash: "bb"}.Apply(s, now.Add(time.Second))
	assert.Equal(t, uint64(101), s.Height)
	assert.Equal(t, now, s.LastBlockAt)
}

func TestLightningInfoReplacesMetrics(t *testing.T) {
	now := time.Now()
	s := LightningInfo{
		Service: ServiceREST,
		Status:  StatusOnline,
		Height:  500,
		Metrics: LightningMetrics{
			Alias:            "carol",
			Peers:            3,
			ActiveChannels:   2,
			TotalCapacitySat: 500000,
			LocalBalanceSat:  250000,
		},
	}.Apply(NewState("ln"), now)

	assert.Equal(t, StatusOnline, s.Status)
	assert.Equal(t, uint64(500), s.Height)
	require.NotNil(t, s.Lightning)
	assert.Equal(t, uint64(500000), s.Lightning.TotalCapacitySat)
	assert.Equal(t, uint64(250000), s.Lightning.LocalBalanceSat)
}

func TestLightningMetricsSurviveOutage(t *testing.T) {
	now := time.Now()
	s := applyAll(NewState("ln"), now,
		Init{Name: "ln", Services: []string{ServiceREST}, Lightning: true},
		LightningInfo{
			Service: ServiceREST,
			Status:  StatusOnline,
			Height:  500,
			Metrics: LightningMetrics{TotalCapacitySat: 500000, LocalBalanceSat: 250000},
		},
		PollFailed{Service: ServiceREST, Message: "REST unreachable"},
	)

	assert.Equal(t, StatusOffline, s.Status)
	require.NotNil(t, s.Lightning)
	assert.Equal(t, uint64(500000), s.Lightning.TotalCapacitySat)
	assert.Equal(t, uint64(250000), s.Lightning.LocalBalanceSat)
}

func TestApplyDoesNotAliasPreviousState(t *testing.T) {
	now := time.Now()
	prev := applyAll(NewState("core"), now,
		Init{Name: "core", Services: []string{ServiceRPC}},
	)

	next := ServiceStatus{Service: ServiceRPC, Status: StatusOnline}.Apply(prev, now)
	assert.Equal(t, StatusOffline, prev.Services[ServiceRPC])
	assert.Equal(t, StatusOnline, next.Services[ServiceRPC])
}

func TestServiceAtWrapsIndex(t *testing.T) {
	s := Init{Name: "core", Services: []string{ServiceRPC, ServiceZMQ}}.
		Apply(NewState("core"), time.Now())

	name, _, ok := s.ServiceAt(0)
	require.True(t, ok)
	assert.Equal(t, ServiceRPC, name)

	name, _, _ = s.ServiceAt(3)
	assert.Equal(t, ServiceZMQ, name)

	_, _, ok = NewState("empty").ServiceAt(0)
	assert.False(t, ok)
}
