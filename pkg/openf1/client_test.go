//nolint:funlen // ok for this test code
package openf1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParams(t *testing.T) {
	tests := []struct {
		name   string
		params []Param
		want   string
	}{
		{name: "none", want: ""},
		{
			name:   "int and string",
			params: []Param{Int("meeting_key", 1219), String("session_name", "Race")},
			want:   "meeting_key=1219&session_name=Race",
		},
		{
			name:   "operator stays unescaped",
			params: []Param{Int("session_key", 9161), Compare("speed", OpGe, 315)},
			want:   "session_key=9161&speed>=315",
		},
		{
			name:   "upper bound",
			params: []Param{Compare("speed", OpLe, 100), Compare("speed", OpGt, 50)},
			want:   "speed<=100&speed>50",
		},
		{
			name:   "repeated list values",
			params: []Param{Ints("driver_number", 1, 44), Strings("country_code", "GBR", "NED")},
			want:   "driver_number=1&driver_number=44&country_code=GBR&country_code=NED",
		},
		{
			name:   "empty list omitted",
			params: []Param{Ints("driver_number"), Int("meeting_key", 1)},
			want:   "meeting_key=1",
		},
		{
			name:   "values escaped",
			params: []Param{String("country_name", "Great Britain & Co")},
			want:   "country_name=Great+Britain+%26+Co",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeParams(tt.params...))
		})
	}
}

func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	opts = append([]Option{WithRetries(2, time.Millisecond)}, opts...)
	return New(srv.URL, opts...)
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     []Record
		wantKind *ErrorKind
	}{
		{
			name:   "list",
			status: http.StatusOK,
			body:   `[{"meeting_key":1219,"speed":315},{"meeting_key":1219,"speed":1.5}]`,
			want: []Record{
				{"meeting_key": int64(1219), "speed": int64(315)},
				{"meeting_key": int64(1219), "speed": 1.5},
			},
		},
		{name: "empty list", status: http.StatusOK, body: `[]`, want: []Record{}},
		{name: "422 no match", status: http.StatusUnprocessableEntity, body: `{"detail":"x"}`},
		{name: "non list payload", status: http.StatusOK, body: `{"detail":"error"}`},
		{
			name:     "malformed json",
			status:   http.StatusOK,
			body:     `[{"meeting_key":`,
			wantKind: kindPtr(KindDecode),
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `not here`,
			wantKind: kindPtr(KindStatus),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					fmt.Fprint(w, tt.body)
				}))
			defer srv.Close()

			got, err := newTestClient(srv).Fetch(context.Background(), "car_data")
			if tt.wantKind != nil {
				require.Error(t, err)
				kind, ok := KindOf(err)
				assert.True(t, ok)
				assert.Equal(t, *tt.wantKind, kind)
				var fe *FetchError
				require.True(t, errors.As(err, &fe))
				assert.Contains(t, fe.URL, "/car_data")
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func kindPtr(k ErrorKind) *ErrorKind {
	return &k
}

func TestFetchSendsUnescapedOperator(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			rawQuery = r.URL.RawQuery
			assert.Equal(t, "/car_data", r.URL.Path)
			assert.Contains(t, r.Header.Get("User-Agent"), "speedview-sync/")
			fmt.Fprint(w, `[]`)
		}))
	defer srv.Close()

	_, err := newTestClient(srv).Fetch(context.Background(), EndpointCarData,
		Int("session_key", 9161), Compare("speed", OpGe, 315))
	require.NoError(t, err)
	assert.Equal(t, "session_key=9161&speed>=315", rawQuery)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		status    int
		wantCalls int32
		wantErr   bool
	}{
		{name: "recovers", failures: 2, status: http.StatusBadGateway, wantCalls: 3},
		{name: "exhausted", failures: 5, status: http.StatusServiceUnavailable, wantCalls: 3, wantErr: true},
		{name: "throttled", failures: 1, status: http.StatusTooManyRequests, wantCalls: 2},
		{name: "client error not retried", failures: 5, status: http.StatusBadRequest, wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					if calls.Add(1) <= tt.failures {
						w.WriteHeader(tt.status)
						return
					}
					fmt.Fprint(w, `[{"meeting_key":1}]`)
				}))
			defer srv.Close()

			got, err := newTestClient(srv).Fetch(context.Background(), "meetings")
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr {
				var fe *FetchError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, tt.status, fe.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srvURL := srv.URL
	srv.Close()

	c := New(srvURL, WithRetries(0, 0), WithTimeout(time.Second))
	_, err := c.Fetch(context.Background(), "meetings")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
	defer srv.Close()

	c := New(srv.URL, WithRetries(0, 0))
	for range 5 {
		_, err := c.Fetch(context.Background(), "meetings")
		require.Error(t, err)
	}
	_, err := c.Fetch(context.Background(), "meetings")
	assert.True(t, IsTransport(err), "expected open breaker, got %v", err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestFetchDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
	defer srv.Close()

	c := newTestClient(srv, WithDelay(50*time.Millisecond))
	start := time.Now()
	_, err := c.Fetch(context.Background(), "meetings")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c = newTestClient(srv, WithDelay(time.Hour))
	start = time.Now()
	//nolint:errcheck // only the delay matters
	c.Fetch(ctx, "meetings")
	assert.Less(t, time.Since(start), time.Second)
}
