package agent

import (
	"fmt"
	"strings"
	"sync"
)

// StaticToolCatalog is the in-memory ToolCatalog used by nodes.
type StaticToolCatalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]ToolSpec
	order []string
}

// NewStaticToolCatalog returns an empty catalog.
func NewStaticToolCatalog() *StaticToolCatalog {
	return &StaticToolCatalog{
		tools: make(map[string]Tool),
		specs: make(map[string]ToolSpec),
	}
}

// Register adds a tool under its lower-cased name. Duplicate names return an error.
func (c *StaticToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := normalizeName(spec.Name)
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[key]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	c.tools[key] = tool
	c.specs[key] = spec
	c.order = append(c.order, key)
	return nil
}

// Lookup returns the tool and its specification if present.
func (c *StaticToolCatalog) Lookup(name string) (Tool, ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := normalizeName(name)
	tool, ok := c.tools[key]
	if !ok {
		return nil, ToolSpec{}, false
	}
	return tool, c.specs[key], true
}

// Specs returns the specifications in registration order.
func (c *StaticToolCatalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, c.specs[key])
	}
	return specs
}

// Tools returns the registered tools in order.
func (c *StaticToolCatalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make([]Tool, 0, len(c.order))
	for _, key := range c.order {
		tools = append(tools, c.tools[key])
	}
	return tools
}

// StaticHandoffDirectory is the in-memory HandoffDirectory used by nodes.
type StaticHandoffDirectory struct {
	mu      sync.RWMutex
	targets map[string]*Agent
	order   []string
}

// NewStaticHandoffDirectory returns an empty directory.
func NewStaticHandoffDirectory() *StaticHandoffDirectory {
	return &StaticHandoffDirectory{targets: make(map[string]*Agent)}
}

// Register adds a handoff target. Duplicate names return an error.
func (d *StaticHandoffDirectory) Register(target *Agent) error {
	if target == nil {
		return fmt.Errorf("handoff target is nil")
	}
	key := normalizeName(target.Name())
	if key == "" {
		return fmt.Errorf("handoff target name is empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.targets[key]; exists {
		return fmt.Errorf("handoff target %s already registered", target.Name())
	}
	d.targets[key] = target
	d.order = append(d.order, key)
	return nil
}

// Lookup retrieves a target by name.
func (d *StaticHandoffDirectory) Lookup(name string) (*Agent, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	target, ok := d.targets[normalizeName(name)]
	return target, ok
}

// All returns the targets in registration order.
func (d *StaticHandoffDirectory) All() []*Agent {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Agent, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.targets[key])
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
