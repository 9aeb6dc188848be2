// Package gmaps is the optional geocoding collaborator: reverse geocoding
// and travel-distance-matrix lookups that enrich outbound data bags.
// Failures degrade to an empty field map and never block a notification.
package gmaps

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// TravelModes are the accepted distance-matrix modes.
var TravelModes = map[string]bool{
	"walking": true,
	"biking":  true,
	"driving": true,
	"transit": true,
}

// Service is the lookup contract consumed by the dispatcher.
type Service interface {
	ReverseGeocode(lat, lng float64, locale string) map[string]string
	DistanceMatrix(mode string, lat, lng, destLat, destLng float64, locale, units string) map[string]string
}

// Client talks to the Google Maps REST API.
type Client struct {
	key     string
	baseURL string
	client  *http.Client
}

func NewClient(key string) *Client {
	return &Client{
		key:     key,
		baseURL: "https://maps.googleapis.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ReverseGeocode(lat, lng float64, locale string) map[string]string {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("language", locale)
	q.Set("key", c.key)

	var resp struct {
		Results []struct {
			AddressComponents []struct {
				LongName  string   `json:"long_name"`
				ShortName string   `json:"short_name"`
				Types     []string `json:"types"`
			} `json:"address_components"`
		} `json:"results"`
	}
	if err := c.get(c.baseURL+"/maps/api/geocode/json", q, &resp); err != nil {
		log.Error().Err(err).Msg("reverse geocode lookup failed")
		return map[string]string{}
	}
	out := map[string]string{}
	if len(resp.Results) == 0 {
		return out
	}
	for _, comp := range resp.Results[0].AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				out["street_num"] = comp.LongName
			case "route":
				out["street"] = comp.LongName
			case "locality":
				out["city"] = comp.LongName
			case "administrative_area_level_1":
				out["state"] = comp.ShortName
			case "postal_code":
				out["postal"] = comp.LongName
			case "country":
				out["country"] = comp.ShortName
			}
		}
	}
	if out["street_num"] != "" && out["street"] != "" {
		out["address"] = out["street_num"] + " " + out["street"]
	}
	return out
}

func (c *Client) DistanceMatrix(mode string, lat, lng, destLat, destLng float64, locale, units string) map[string]string {
	q := url.Values{}
	q.Set("origins", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("destinations", fmt.Sprintf("%f,%f", destLat, destLng))
	q.Set("mode", mode)
	q.Set("language", locale)
	q.Set("units", units)
	q.Set("key", c.key)

	var resp struct {
		Rows []struct {
			Elements []struct {
				Distance struct {
					Text string `json:"text"`
				} `json:"distance"`
				Duration struct {
					Text string `json:"text"`
				} `json:"duration"`
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := c.get(c.baseURL+"/maps/api/distancematrix/json", q, &resp); err != nil {
		log.Error().Err(err).Str("mode", mode).Msg("distance matrix lookup failed")
		return map[string]string{}
	}
	out := map[string]string{}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return out
	}
	el := resp.Rows[0].Elements[0]
	out[mode+"_dist"] = el.Distance.Text
	out[mode+"_dur"] = el.Duration.Text
	return out
}

func (c *Client) get(endpoint string, q url.Values, out any) error {
	resp, err := c.client.Get(endpoint + "?" + q.Encode())
	if err != nil {
		return fmt.Errorf("gmaps request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gmaps status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gmaps decode: %w", err)
	}
	return nil
}
