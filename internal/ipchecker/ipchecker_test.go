package ipchecker

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("not-a-cidr")
	assert.Error(t, err)

	checker, err := New("")
	require.NoError(t, err)
	assert.False(t, checker.Check(netip.MustParseAddr("127.0.0.1")))
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
		wantErr    bool
	}{
		{name: "remote addr with port", remoteAddr: "10.0.0.5:1234", want: "10.0.0.5"},
		{name: "remote addr without port", remoteAddr: "10.0.0.6", want: "10.0.0.6"},
		{name: "x-real-ip wins", remoteAddr: "10.0.0.5:1234", headers: map[string]string{"X-Real-IP": "192.168.1.7", "X-Forwarded-For": "172.16.0.1"}, want: "192.168.1.7"},
		{name: "first forwarded hop", remoteAddr: "10.0.0.5:1234", headers: map[string]string{"X-Forwarded-For": "172.16.0.1, 10.0.0.1"}, want: "172.16.0.1"},
		{name: "garbage", remoteAddr: "nowhere", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			addr, err := ClientAddr(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.String())
		})
	}
}

func TestMiddleware(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)
	handler := checker.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for addr, want := range map[string]int{
		"192.168.1.10:5000": http.StatusOK,
		"192.168.2.10:5000": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/internal/stats", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, addr)
	}
}
