package gmaps

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient("test-key")
	c.baseURL = srv.URL
	return c
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"results":[{"address_components":[
			{"long_name":"221","short_name":"221","types":["street_number"]},
			{"long_name":"Baker Street","short_name":"Baker St","types":["route"]},
			{"long_name":"London","short_name":"London","types":["locality"]},
			{"long_name":"England","short_name":"ENG","types":["administrative_area_level_1"]},
			{"long_name":"United Kingdom","short_name":"GB","types":["country"]}
		]}]}`))
	}))
	defer srv.Close()

	out := testClient(srv).ReverseGeocode(51.52, -0.156, "en")
	assert.Equal(t, "Baker Street", out["street"])
	assert.Equal(t, "London", out["city"])
	assert.Equal(t, "ENG", out["state"])
	assert.Equal(t, "GB", out["country"])
	assert.Equal(t, "221 Baker Street", out["address"])
}

func TestReverseGeocode_FailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	out := testClient(srv).ReverseGeocode(0, 0, "en")
	assert.Empty(t, out)
}

func TestDistanceMatrix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/distancematrix/json", r.URL.Path)
		assert.Equal(t, "walking", r.URL.Query().Get("mode"))
		w.Write([]byte(`{"rows":[{"elements":[
			{"distance":{"text":"2.3 km"},"duration":{"text":"28 mins"}}
		]}]}`))
	}))
	defer srv.Close()

	out := testClient(srv).DistanceMatrix("walking", 1, 2, 3, 4, "en", "metric")
	assert.Equal(t, "2.3 km", out["walking_dist"])
	assert.Equal(t, "28 mins", out["walking_dur"])
}

func TestDistanceMatrix_EmptyRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer srv.Close()

	out := testClient(srv).DistanceMatrix("driving", 1, 2, 3, 4, "en", "metric")
	assert.Empty(t, out)
}
