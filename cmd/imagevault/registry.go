package main

import (
	"github.com/deploymenttheory/go-imagevault/internal/config"
	"github.com/deploymenttheory/go-imagevault/internal/formats/clonecd"
	"github.com/deploymenttheory/go-imagevault/internal/formats/qcow"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
)

// buildRegistry registers the built-in plugins in the order named by
// cfg.RegistryProbeOrder, falling back to every known plugin (in its
// default order) for any name the config doesn't mention.
func buildRegistry(cfg *config.Config) *imagevault.Registry {
	known := map[string]imagevault.Plugin{
		"clonecd": &clonecd.Image{},
		"qcow":    &qcow.Image{CacheSizeBytes: cfg.CacheSizeBytes},
	}

	reg := imagevault.NewRegistry()
	seen := map[string]bool{}
	for _, name := range cfg.RegistryProbeOrder {
		if p, ok := known[name]; ok && !seen[name] {
			reg.Register(p)
			seen[name] = true
		}
	}
	for _, name := range []string{"clonecd", "qcow"} {
		if !seen[name] {
			reg.Register(known[name])
			seen[name] = true
		}
	}
	return reg
}
