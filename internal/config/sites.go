package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site is one tracked property: its display name, home page origin and the
// GA4 property that reports its traffic.
type Site struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	PropertyID string `yaml:"ga4_property"`
}

// Origin returns the site URL without a trailing slash.
func (s Site) Origin() string {
	return strings.TrimRight(s.URL, "/")
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// DefaultSites returns the built-in list of tracked news sites.
func DefaultSites() []Site {
	return []Site{
		{Name: "Publimetro MX", URL: "https://www.publimetro.com.mx/", PropertyID: "267948860"},
		{Name: "Metro Puerto Rico", URL: "https://www.metro.pr/", PropertyID: "301150515"},
		{Name: "Metro Ecuador", URL: "https://www.metroecuador.com.ec/", PropertyID: "268003463"},
		{Name: "MWN", URL: "https://www.metroworldnews.com/", PropertyID: "283971315"},
		{Name: "Publimetro Colombia", URL: "https://www.publimetro.co/", PropertyID: "268737997"},
		{Name: "Publimetro Guatemala", URL: "https://www.publinews.gt/", PropertyID: "422453464"},
		{Name: "Publimetro Chile", URL: "https://www.publimetro.cl/", PropertyID: "251598898"},
		{Name: "Nueva Mujer", URL: "https://www.nuevamujer.com/", PropertyID: "268739443"},
		{Name: "Fayerwayer", URL: "https://www.fayerwayer.com/", PropertyID: "268947931"},
		{Name: "El Calce", URL: "https://www.elcalce.com/", PropertyID: "301106387"},
		{Name: "Ferplei", URL: "https://www.ferplei.com/", PropertyID: "288444552"},
		{Name: "Sagrosso", URL: "https://www.sagrosso.com/", PropertyID: "321109979"},
		{Name: "MWN Brasil", URL: "https://www.metroworldnews.com.br/", PropertyID: "454335700"},
	}
}

// LoadSites reads a YAML site list of the form:
//
//	sites:
//	  - name: Publimetro MX
//	    url: https://www.publimetro.com.mx/
//	    ga4_property: "267948860"
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites file %s: %w", path, err)
	}
	return f.Sites, nil
}

// ValidateSites checks that every site is complete and names are unique.
func ValidateSites(sites []Site) error {
	if len(sites) == 0 {
		return errors.New("site list is empty")
	}
	seen := make(map[string]bool, len(sites))
	for i, s := range sites {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("site %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("site %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("site %q: url must be an absolute http(s) URL", s.Name)
		}
		if s.PropertyID == "" {
			return fmt.Errorf("site %q: ga4_property is required", s.Name)
		}
	}
	return nil
}
