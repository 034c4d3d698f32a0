package loaders

import (
	"fmt"
	"path/filepath"
)

// ShaderData is a vertex + fragment SPIR-V pair.
type ShaderData struct {
	Name     string
	Vertex   []uint32
	Fragment []uint32
}

// LoadShader reads <dir>/<name>.vert.spv and <dir>/<name>.frag.spv.
func LoadShader(dir, name string) (*ShaderData, error) {
	vert, err := ReadSPIRV(filepath.Join(dir, name+".vert.spv"))
	if err != nil {
		return nil, fmt.Errorf("vertex stage of shader %s: %w", name, err)
	}
	frag, err := ReadSPIRV(filepath.Join(dir, name+".frag.spv"))
	if err != nil {
		return nil, fmt.Errorf("fragment stage of shader %s: %w", name, err)
	}
	return &ShaderData{
		Name:     name,
		Vertex:   vert,
		Fragment: frag,
	}, nil
}
