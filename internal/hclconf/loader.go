// Package hclconf is the HCL implementation of the config.Loader
// contract.
package hclconf

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/fieldflow/internal/config"
	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/entity"
)

// Loader parses fieldflow's HCL configuration files.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top-level schema of a configuration file.
type fileRoot struct {
	Equations       []string       `hcl:"equations,optional"`
	EquationsXML    string         `hcl:"equations_xml,optional"`
	RequestedFields []string       `hcl:"requested_fields"`
	Provider        *providerBlock `hcl:"provider,block"`
	Bonds           []*bondBlock   `hcl:"bond,block"`
}

type providerBlock struct {
	Settings map[string]float64 `hcl:"settings"`
}

type bondBlock struct {
	ID    string             `hcl:"id,label"`
	Attrs map[string]float64 `hcl:"attrs"`
}

// Load parses and translates one configuration file.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	model := &config.Model{
		Equations:       root.Equations,
		EquationsXML:    root.EquationsXML,
		RequestedFields: root.RequestedFields,
	}
	if root.Provider != nil {
		model.ProviderSettings = root.Provider.Settings
	}
	for _, bond := range root.Bonds {
		if bond.ID == "" {
			return nil, fmt.Errorf("config file %s: bond block with empty identifier", path)
		}
		model.Entities = append(model.Entities, entity.Entity{ID: bond.ID, Attrs: bond.Attrs})
	}

	logger.Debug("HCL loading complete.",
		"equations", len(model.Equations),
		"requested_fields", len(model.RequestedFields),
		"entities", len(model.Entities))
	return model, nil
}
