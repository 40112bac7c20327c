package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainmon/internal/config"
	"chainmon/internal/node"
)

func newCLNServer(t *testing.T, getinfo, channels string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-rune", r.Header.Get("Rune"))
		switch r.URL.Path {
		case "/v1/getinfo":
			w.Write([]byte(getinfo))
		case "/v1/listpeerchannels":
			w.Write([]byte(channels))
		default:
			http.NotFound(w, r)
		}
	}))
}

func clnForServer(srv *httptest.Server) *CoreLightning {
	return NewCoreLightning(0, "cln-test", config.CoreLightningConfig{
		RestAddress: srv.URL,
		Rune:        "test-rune",
	})
}

func TestCoreLightningPollSumsNormalChannels(t *testing.T) {
	srv := newCLNServer(t,
		`{"alias":"dave","blockheight":840000,"num_peers":5,
		  "num_active_channels":2,"num_pending_channels":0,"num_inactive_channels":1}`,
		`{"channels":[
			{"state":"CHANNELD_NORMAL","total_msat":300000000,"to_us_msat":150000000,"htlcs":[{},{}]},
			{"state":"CHANNELD_NORMAL","total_msat":200000000,"to_us_msat":100000000,"htlcs":[]},
			{"state":"CHANNELD_AWAITING_LOCKIN","total_msat":900000000,"to_us_msat":900000000,"htlcs":[{}]}
		]}`)
	defer srv.Close()

	sink := &recordSink{}
	clnForServer(srv).poll(context.Background(), sink)

	st := sink.fold("cln-test")
	assert.Equal(t, node.StatusOnline, st.Status)
	assert.Equal(t, uint64(840000), st.Height)
	require.NotNil(t, st.Lightning)
	assert.Equal(t, "dave", st.Lightning.Alias)
	assert.Equal(t, uint32(5), st.Lightning.Peers)
	// Only CHANNELD_NORMAL channels count: 300k + 200k msat of capacity.
	assert.Equal(t, uint64(500000), st.Lightning.TotalCapacitySat)
	assert.Equal(t, uint64(250000), st.Lightning.LocalBalanceSat)
	assert.Equal(t, uint32(2), st.Lightning.PendingHTLCs)
}

func TestCoreLightningPollSyncWarning(t *testing.T) {
	srv := newCLNServer(t,
		`{"alias":"dave","blockheight":100,
		  "warning_bitcoind_sync":"Bitcoind is not up-to-date with network."}`,
		`{"channels":[]}`)
	defer srv.Close()

	sink := &recordSink{}
	clnForServer(srv).poll(context.Background(), sink)

	st := sink.fold("cln-test")
	assert.Equal(t, node.StatusSynchronizing, st.Status)
	assert.Equal(t, "Bitcoind is not up-to-date with network.", st.Message)
}

func TestCoreLightningPollFailurePreservesMetrics(t *testing.T) {
	srv := newCLNServer(t,
		`{"alias":"dave","blockheight":840000,"num_peers":5}`,
		`{"channels":[{"state":"CHANNELD_NORMAL","total_msat":500000000,"to_us_msat":250000000,"htlcs":[]}]}`)
	sink := &recordSink{}
	p := clnForServer(srv)
	p.poll(context.Background(), sink)
	srv.Close()

	p.poll(context.Background(), sink)

	st := sink.fold("cln-test")
	assert.Equal(t, node.StatusOffline, st.Status)
	require.NotNil(t, st.Lightning)
	assert.Equal(t, uint64(500000), st.Lightning.TotalCapacitySat)
	assert.Equal(t, uint64(250000), st.Lightning.LocalBalanceSat)
}
