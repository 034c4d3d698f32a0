//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Stages compiled by glslc, in the order the mesh program expects them.
var shaderStages = []string{"vert", "frag"}

// Compiles the GLSL sources under shaders/ into SPIR-V under assets/shaders/.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and the engine binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/keyframe", "."), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	for _, stage := range shaderStages {
		src := filepath.Join("shaders", fmt.Sprintf("mesh.%s", stage))
		dst := filepath.Join("assets", "shaders", fmt.Sprintf("mesh.%s.spv", stage))
		if _, err := executeCmd("glslc", withArgs(src, "-o", dst), withStream()); err != nil {
			return err
		}
	}
	return nil
}
