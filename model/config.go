package model

import "strings"

// DefaultHost is the production ingestion host.
const DefaultHost = "https://frontend-api.flaptastic.com"

// IngestPath is appended to the host to form the ingestion endpoint.
const IngestPath = "/api/v1/ingest"

// RunConfig holds the settings of a single observed run. It is read once
// when the run starts and never changes afterwards.
type RunConfig struct {
	// Organization the results belong to (required for delivery)
	OrganizationID string `yaml:"organization_id"`
	// Token sent with every delivery (required for delivery)
	APIToken string `yaml:"api_token"`
	// Name of the service under test (required for delivery)
	Service string `yaml:"service"`
	// Git branch of the run (required for delivery)
	Branch string `yaml:"branch"`
	// Git commit of the run
	CommitID string `yaml:"commit_id"`
	// Link back to the CI job
	Link string `yaml:"link"`
	// Diagnostic output threshold: 0 warnings only, 1 notices, 2 and above debug
	Verbosity int `yaml:"-"`
	// Ingestion host, DefaultHost when empty
	Host string `yaml:"host"`
	// Project root that reported file paths are made relative to
	Root string `yaml:"root"`
}

// Missing returns the names of the required settings that are empty.
func (c RunConfig) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"organization_id", c.OrganizationID},
		{"api_token", c.APIToken},
		{"service", c.Service},
		{"branch", c.Branch},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Deliverable reports whether all settings required for delivery are present.
func (c RunConfig) Deliverable() bool {
	return len(c.Missing()) == 0
}

// IngestURL returns the full URL results are posted to.
func (c RunConfig) IngestURL() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	return strings.TrimRight(host, "/") + IngestPath
}

// Merge fills the empty string fields of c with the values from defaults.
// Verbosity is left alone, zero is a valid threshold.
func (c RunConfig) Merge(defaults RunConfig) RunConfig {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	c.OrganizationID = pick(c.OrganizationID, defaults.OrganizationID)
	c.APIToken = pick(c.APIToken, defaults.APIToken)
	c.Service = pick(c.Service, defaults.Service)
	c.Branch = pick(c.Branch, defaults.Branch)
	c.CommitID = pick(c.CommitID, defaults.CommitID)
	c.Link = pick(c.Link, defaults.Link)
	c.Host = pick(c.Host, defaults.Host)
	c.Root = pick(c.Root, defaults.Root)
	return c
}
