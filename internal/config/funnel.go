package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// FunnelFile holds the marketing copy that changes per funnel without a deploy.
type FunnelFile struct {
	Meta struct {
		LeadContentName   string `yaml:"lead_content_name"`
		LeadSourceURL     string `yaml:"lead_source_url"`
		PurchaseSourceURL string `yaml:"purchase_source_url"`
		DefaultSourceURL  string `yaml:"default_source_url"`
	} `yaml:"meta"`
	PhoneRegion string `yaml:"phone_region"`
}

// ApplyFunnelFile overlays non-empty values from a YAML funnel file on cfg.
func ApplyFunnelFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read funnel file %s: %w", path, err)
	}

	var f FunnelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse funnel file %s: %w", path, err)
	}

	overlay(&cfg.Meta.LeadContentName, f.Meta.LeadContentName)
	overlay(&cfg.Meta.LeadSourceURL, f.Meta.LeadSourceURL)
	overlay(&cfg.Meta.PurchaseSourceURL, f.Meta.PurchaseSourceURL)
	overlay(&cfg.Meta.DefaultSourceURL, f.Meta.DefaultSourceURL)
	overlay(&cfg.Meta.PhoneRegion, f.PhoneRegion)
	return nil
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
