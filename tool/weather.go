package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/VRUSHIL1/shop-chatbot-v2/internal/util"
)

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

type weatherArgs struct {
	City string `json:"city" description:"Name of the city"`
}

// WeatherToolOptions configure the weather tool endpoints, overridable in tests.
type WeatherToolOptions struct {
	GeocodingURL string
	ForecastURL  string
	HTTPClient   *http.Client
}

// NewWeatherTool creates the get-current-weather tool backed by the
// Open-Meteo geocoding and forecast APIs.
func NewWeatherTool(optFns ...func(o *WeatherToolOptions)) Tool {
	opts := WeatherToolOptions{
		GeocodingURL: defaultGeocodingURL,
		ForecastURL:  defaultForecastURL,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return NewFunctionTool(
		"weather_tool",
		"Get current weather for a given city",
		util.CreateSchema(weatherArgs{}),
		func(ctx context.Context, args map[string]any) (any, error) {
			city, _ := args["city"].(string)
			return fetchWeather(ctx, opts, city)
		},
	)
}

type geocodingResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	CurrentWeather map[string]any `json:"current_weather"`
}

func fetchWeather(ctx context.Context, opts WeatherToolOptions, city string) (map[string]any, error) {
	geoQuery := url.Values{"name": {city}, "count": {"1"}}
	var geo geocodingResponse
	if err := getJSON(ctx, opts.HTTPClient, opts.GeocodingURL+"?"+geoQuery.Encode(), &geo); err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	if len(geo.Results) == 0 {
		return map[string]any{"error": fmt.Sprintf("Location '%s' not found", city)}, nil
	}

	lat := geo.Results[0].Latitude
	lon := geo.Results[0].Longitude

	forecastQuery := url.Values{
		"latitude":        {fmt.Sprintf("%g", lat)},
		"longitude":       {fmt.Sprintf("%g", lon)},
		"current_weather": {"true"},
		"timezone":        {"auto"},
	}
	var forecast forecastResponse
	if err := getJSON(ctx, opts.HTTPClient, opts.ForecastURL+"?"+forecastQuery.Encode(), &forecast); err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}

	current := forecast.CurrentWeather
	if current == nil {
		current = map[string]any{}
	}

	message := fmt.Sprintf("The current temperature in %s is unavailable.", city)
	if temperature, ok := current["temperature"].(float64); ok {
		message = fmt.Sprintf("The current temperature in %s is %g°C.", city, temperature)
	}

	return map[string]any{
		"location": city,
		"lat":      lat,
		"lon":      lon,
		"date":     time.Now().Format("2006-01-02"),
		"weather":  current,
		"message":  message,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
