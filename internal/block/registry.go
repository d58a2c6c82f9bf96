package block

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
)

// Block type names the host addresses renderers by.
const (
	GridBlockName = "product-grid-advanced"
	CardBlockName = "product-card-advanced"
)

// ErrUnknownBlock is returned when a render is requested for a block type
// nobody registered.
var ErrUnknownBlock = errors.New("block: unknown block type")

// RenderFunc renders one block instance from its raw stored attributes.
type RenderFunc func(ctx context.Context, attributes []byte) (template.HTML, error)

// Descriptor declares one block type to the host: its name, the attribute
// defaults that complete partially-stored configs, and the renderer invoked
// with the resolved attributes at render time.
type Descriptor struct {
	Name     string
	Defaults DisplayConfig
	Render   RenderFunc
}

// Registry holds the declared block types for host discovery.
type Registry struct {
	byName map[string]Descriptor
	names  []string
}

// NewRegistry creates an empty block registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register declares a block type. Re-registering a name is a programming
// error and fails.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("block: descriptor needs a name")
	}
	if d.Render == nil {
		return fmt.Errorf("block: descriptor %q needs a renderer", d.Name)
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("block: %q already registered", d.Name)
	}
	r.byName[d.Name] = d
	r.names = append(r.names, d.Name)
	log.Printf("INFO: Registered block type %q", d.Name)
	return nil
}

// Get looks a block type up by name.
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownBlock, name)
	}
	return d, nil
}

// Names lists the registered block types in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
