package hierarchy

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/veridian-eda/aigpipe/internal/status"
)

// Property is one assertion/cover goal in the design. The database owns
// identity and location; the extraction pipeline only mutates Status and
// appends trace file references.
type Property struct {
	// Path is the hierarchical path of the containing module instance.
	Path []string
	// Name is the cell's display name inside its module.
	Name string
	// CellType is the goal kind (e.g. "$assert").
	CellType string
	// HDLName is the full human-readable name used in summary events.
	HDLName string
	// Location is the source location ("file.sv:42").
	Location string

	mu         sync.Mutex
	status     status.Status
	traceFiles []string
}

// SetStatus records the property verdict. Last writer wins; engines are
// namespaced by index so concurrent writers agree or the task has already
// failed anyway.
func (p *Property) SetStatus(st status.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = st
}

// Status returns the property verdict.
func (p *Property) Status() status.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// AppendTrace records a generated trace file against the property.
// Append-only, never overwritten.
func (p *Property) AppendTrace(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.traceFiles = append(p.traceFiles, path)
}

// TraceFiles returns the trace files recorded so far.
func (p *Property) TraceFiles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.traceFiles...)
}

// Design is the property database for one compiled model.
type Design struct {
	props []*Property
}

// NewDesign builds a Design from a property list.
func NewDesign(props []*Property) *Design {
	return &Design{props: props}
}

// Properties returns all properties in declaration order.
func (d *Design) Properties() []*Property {
	return d.props
}

// FindProperty resolves a failing-assertion path and cell name to a
// Property. Both the query and the stored names are run through the
// translation table before comparison, so escaped and scoped spellings of
// the same name unify.
func (d *Design) FindProperty(path []string, cellName string, trans map[rune]rune) (*Property, error) {
	for _, p := range d.props {
		if len(p.Path) != len(path) {
			continue
		}
		if Translate(p.Name, trans) != Translate(cellName, trans) {
			continue
		}
		match := true
		for i := range path {
			if Translate(p.Path[i], trans) != Translate(path[i], trans) {
				match = false
				break
			}
		}
		if match {
			return p, nil
		}
	}
	return nil, fmt.Errorf("property %s not found in hierarchy %s",
		cellName, strings.Join(path, "."))
}

// designFile is the on-disk YAML listing of properties, produced alongside
// the compiled model.
type designFile struct {
	Properties []struct {
		Path    string `yaml:"path"`
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		HDLName string `yaml:"hdlname"`
		Src     string `yaml:"src"`
	} `yaml:"properties"`
}

// LoadDesign reads a property listing from a YAML file.
func LoadDesign(path string) (*Design, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load design: %w", err)
	}
	var df designFile
	if err := yaml.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("load design %s: %w", path, err)
	}
	props := make([]*Property, 0, len(df.Properties))
	for _, e := range df.Properties {
		props = append(props, &Property{
			Path:     ParseModPath(e.Path),
			Name:     e.Name,
			CellType: e.Type,
			HDLName:  e.HDLName,
			Location: e.Src,
		})
	}
	return NewDesign(props), nil
}
