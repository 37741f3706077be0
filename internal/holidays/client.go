// Package holidays wraps the Nager.Date public holiday API.
package holidays

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Holiday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Fixed       bool     `json:"fixed"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties"`
	LaunchYear  *int     `json:"launchYear"`
	Types       []string `json:"types"`
}

type Country struct {
	CountryCode string `json:"countryCode"`
	Name        string `json:"name"`
}

// Source is the surface consumed by the holiday import flow.
type Source interface {
	GetPublicHolidays(year int, countryCode string) ([]Holiday, error)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) GetPublicHolidays(year int, countryCode string) ([]Holiday, error) {
	var holidays []Holiday

	path := fmt.Sprintf("/PublicHolidays/%d/%s", year, url.PathEscape(countryCode))
	if err := c.get(path, &holidays); err != nil {
		return nil, err
	}

	return holidays, nil
}

func (c *Client) GetAvailableCountries() ([]Country, error) {
	var countries []Country

	if err := c.get("/AvailableCountries", &countries); err != nil {
		return nil, err
	}

	return countries, nil
}

func (c *Client) IsPublicHoliday(date, countryCode string) (bool, error) {
	resp, err := c.client.Get(c.baseURL + fmt.Sprintf("/IsPublicHoliday/%s/%s", url.PathEscape(date), url.PathEscape(countryCode)))
	if err != nil {
		return false, fmt.Errorf("failed to fetch holiday status: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNoContent:
		return false, nil
	default:
		return false, fmt.Errorf("holiday API returned status %d", resp.StatusCode)
	}
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("holiday API returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
