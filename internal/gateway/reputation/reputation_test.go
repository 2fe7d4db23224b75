package reputation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tf2automatic/internal/pkg/circuit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const partner = "76561198000000002"

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHasEscrow(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{name: "no hold", body: `{"response":{"their_escrow":{"escrow_end_duration_seconds":0}}}`, want: false},
		{name: "held", body: `{"response":{"their_escrow":{"escrow_end_duration_seconds":1296000}}}`, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "secret", r.URL.Query().Get("key"))
				assert.Equal(t, partner, r.URL.Query().Get("steamid_target"))
				_, _ = w.Write([]byte(tc.body))
			})
			c := New(Config{APIKey: "secret", EscrowURL: srv.URL})
			held, err := c.HasEscrow(context.Background(), partner)
			require.NoError(t, err)
			assert.Equal(t, tc.want, held)
		})
	}
}

func TestHasEscrowWithoutKeySkipsRemote(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
	c := New(Config{EscrowURL: srv.URL})
	held, err := c.HasEscrow(context.Background(), partner)
	require.NoError(t, err)
	assert.False(t, held)
	assert.Zero(t, hits.Load())
}

func TestHasEscrowMalformed(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{}}`))
	})
	c := New(Config{APIKey: "k", EscrowURL: srv.URL})
	_, err := c.HasEscrow(context.Background(), partner)
	assert.Error(t, err)
}

func TestIsBanned(t *testing.T) {
	cases := []struct {
		name     string
		backpack string
		steamrep string
		want     bool
	}{
		{
			name:     "clean",
			backpack: `{"users":{"` + partner + `":{"name":"x"}}}`,
			steamrep: `{"steamrep":{"reputation":{"summary":"none"}}}`,
		},
		{
			name:     "backpack ban",
			backpack: `{"users":{"` + partner + `":{"bans":{"all":{"reason":"scam"}}}}}`,
			steamrep: `{"steamrep":{"reputation":{"summary":"none"}}}`,
			want:     true,
		},
		{
			name:     "steamrep scammer",
			backpack: `{"users":{"` + partner + `":{}}}`,
			steamrep: `{"steamrep":{"reputation":{"summary":"SCAMMER"}}}`,
			want:     true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bp := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, partner, r.URL.Query().Get("steamids"))
				_, _ = w.Write([]byte(tc.backpack))
			})
			sr := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasSuffix(r.URL.Path, "/"+partner))
				_, _ = w.Write([]byte(tc.steamrep))
			})
			c := New(Config{BackpackKey: "bp", BackpackURL: bp.URL, SteamRepURL: sr.URL + "/reputation/"})
			banned, err := c.IsBanned(context.Background(), partner)
			require.NoError(t, err)
			assert.Equal(t, tc.want, banned)
		})
	}
}

func TestIsBannedWithoutBackpackKey(t *testing.T) {
	var bpHits atomic.Int32
	bp := newServer(t, func(w http.ResponseWriter, r *http.Request) { bpHits.Add(1) })
	sr := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"steamrep":{"reputation":{"summary":""}}}`))
	})
	c := New(Config{BackpackURL: bp.URL, SteamRepURL: sr.URL})
	banned, err := c.IsBanned(context.Background(), partner)
	require.NoError(t, err)
	assert.False(t, banned)
	assert.Zero(t, bpHits.Load())
}

func TestBreakerShortCircuitsFailingSource(t *testing.T) {
	var hits atomic.Int32
	sr := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c := New(Config{SteamRepURL: sr.URL, BreakerThreshold: 2, BreakerCooldown: time.Hour})
	c.steamrep.OnStateChange(func(string, circuit.State, circuit.State) {})

	for i := 0; i < 2; i++ {
		_, err := c.IsBanned(context.Background(), partner)
		require.Error(t, err)
	}
	_, err := c.IsBanned(context.Background(), partner)
	assert.ErrorIs(t, err, circuit.ErrOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNop(t *testing.T) {
	held, err := Nop{}.HasEscrow(context.Background(), partner)
	require.NoError(t, err)
	assert.False(t, held)
	banned, err := Nop{}.IsBanned(context.Background(), partner)
	require.NoError(t, err)
	assert.False(t, banned)
}
