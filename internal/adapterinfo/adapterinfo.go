package adapterinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const manifestName = "plugin.yaml"

// Metadata captures the static identifiers declared in plugin.yaml.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
	Version     string
	Transport   string
}

// Info describes the current adapter.
var Info = mustLoadMetadata()

// SynthesisMetadata produces the standard metadata payload attached to
// emitted audio chunks.
func SynthesisMetadata(model, stretcher string) map[string]string {
	return map[string]string{
		"generator": Info.GeneratorID,
		"model":     model,
		"stretcher": stretcher,
	}
}

// Version returns the adapter semantic version.
func Version() string {
	return Info.Version
}

func mustLoadMetadata() Metadata {
	data, err := loadManifest()
	if err != nil {
		panic(err)
	}
	meta, err := ParseManifest(data)
	if err != nil {
		panic(err)
	}
	return meta
}

// loadManifest looks for plugin.yaml next to the binary, in the working
// directory and at the source root, in that order.
func loadManifest() ([]byte, error) {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, wd)
	}
	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", ".."))
	}

	seen := make(map[string]bool, len(candidates))
	for _, base := range candidates {
		base = filepath.Clean(base)
		if seen[base] {
			continue
		}
		seen[base] = true
		if data, err := os.ReadFile(filepath.Join(base, manifestName)); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("adapterinfo: plugin.yaml not found next to binary or source tree")
}

type manifest struct {
	Metadata struct {
		Name        string `yaml:"name"`
		Slug        string `yaml:"slug"`
		Description string `yaml:"description"`
		Version     string `yaml:"version"`
		Generator   string `yaml:"generator"`
	} `yaml:"metadata"`
	Spec struct {
		Entrypoint struct {
			Command   string `yaml:"command"`
			Transport string `yaml:"transport"`
		} `yaml:"entrypoint"`
	} `yaml:"spec"`
}

// ParseManifest decodes plugin.yaml and fills derived fields.
func ParseManifest(data []byte) (Metadata, error) {
	var doc manifest
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("adapterinfo: decode manifest: %w", err)
	}

	m := doc.Metadata
	meta := Metadata{
		Name:        strings.TrimSpace(m.Name),
		Slug:        strings.TrimSpace(m.Slug),
		Description: strings.TrimSpace(m.Description),
		Version:     strings.TrimSpace(m.Version),
		GeneratorID: strings.TrimSpace(m.Generator),
		BinaryName:  strings.TrimPrefix(strings.TrimSpace(doc.Spec.Entrypoint.Command), "./"),
		Transport:   strings.TrimSpace(doc.Spec.Entrypoint.Transport),
	}

	switch {
	case meta.Version == "":
		return Metadata{}, errors.New("adapterinfo: metadata.version missing in manifest")
	case meta.Slug == "":
		return Metadata{}, errors.New("adapterinfo: metadata.slug missing in manifest")
	}

	if meta.Name == "" {
		meta.Name = meta.Slug
	}
	if meta.Description == "" {
		meta.Description = meta.Name
	}
	if meta.BinaryName == "" {
		meta.BinaryName = meta.Slug
	}
	if meta.GeneratorID == "" {
		meta.GeneratorID = meta.Slug
	}
	if meta.Transport == "" {
		meta.Transport = "grpc"
	}
	return meta, nil
}
