package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/pkg/types"
)

// Deployment 一个治理程序部署：program id + 版本
type Deployment struct {
	Name      string       `yaml:"name"`
	ProgramID types.Pubkey `yaml:"program_id"`
	Version   uint8        `yaml:"version"`
	Aliases   []string     `yaml:"aliases,omitempty"`
}

// Registry 按名称 / 别名查找部署
type Registry struct {
	byName map[string]Deployment
}

type registryFile struct {
	Deployments []Deployment `yaml:"deployments"`
}

// DefaultRegistry 内置的已知部署
func DefaultRegistry() *Registry {
	r := &Registry{byName: make(map[string]Deployment)}
	_ = r.add(Deployment{Name: "default", ProgramID: consts.GovernanceProgram, Version: consts.ProgramVersionV3, Aliases: []string{"spl"}})
	_ = r.add(Deployment{Name: "pyth", ProgramID: consts.PythGovernanceProgram, Version: consts.ProgramVersionV2})
	_ = r.add(Deployment{Name: "mango", ProgramID: consts.MangoGovernanceProgram, Version: consts.ProgramVersionV2})
	return r
}

// LoadRegistry 读取 yaml 注册表并覆盖到内置表之上
func LoadRegistry(path string) (*Registry, error) {
	r := DefaultRegistry()
	if path == "" {
		return r, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	for _, d := range file.Deployments {
		if err := r.add(d); err != nil {
			return nil, fmt.Errorf("registry %s: %w", path, err)
		}
	}
	return r, nil
}

func (r *Registry) add(d Deployment) error {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	if d.Name == "" {
		return fmt.Errorf("deployment without name")
	}
	if d.ProgramID.IsZero() {
		return fmt.Errorf("deployment %s: empty program_id", d.Name)
	}
	if d.Version == 0 {
		d.Version = consts.DefaultProgramVersion
	}
	if d.Version > consts.ProgramVersionV3 {
		return fmt.Errorf("deployment %s: unsupported version %d", d.Name, d.Version)
	}
	r.byName[d.Name] = d
	for _, alias := range d.Aliases {
		r.byName[strings.ToLower(strings.TrimSpace(alias))] = d
	}
	return nil
}

// Lookup 按名称或别名查找
func (r *Registry) Lookup(name string) (Deployment, bool) {
	d, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Names 返回所有已注册的名称（含别名），按字母序
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve 根据配置选出部署，program_id / program_version 可单独覆盖
func (c *GovernanceConfig) Resolve(r *Registry) (Deployment, error) {
	d, ok := r.Lookup(c.Realm)
	if !ok && c.ProgramID == "" {
		return Deployment{}, fmt.Errorf("unknown governance deployment %q (known: %s)", c.Realm, strings.Join(r.Names(), ", "))
	}
	if !ok {
		d = Deployment{Name: c.Realm, Version: consts.DefaultProgramVersion}
	}
	if c.ProgramID != "" {
		pk, err := types.TryPubkeyFromBase58(c.ProgramID)
		if err != nil {
			return Deployment{}, fmt.Errorf("invalid program_id %q: %w", c.ProgramID, err)
		}
		d.ProgramID = pk
	}
	if c.ProgramVersion != 0 {
		if c.ProgramVersion > consts.ProgramVersionV3 {
			return Deployment{}, fmt.Errorf("unsupported program_version %d", c.ProgramVersion)
		}
		d.Version = c.ProgramVersion
	}
	return d, nil
}
