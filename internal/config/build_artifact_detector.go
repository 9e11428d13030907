// Build artifact detection from build-system manifests found in C/C++
// trees. Parses CMakePresets.json, Cargo.toml, vcpkg.json, etc. to find
// output directories worth excluding from include analysis.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds build output directories declared by the
// build-system manifests present at the project root.
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans for build configuration files and
// extracts output directories. Returns glob patterns to exclude
// (e.g., "**/out/**", "**/target/**").
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string

	// CMake: CMakePresets.json binaryDir entries
	patterns = append(patterns, bad.detectCMakeOutputs()...)

	// Meson: configured build directories
	patterns = append(patterns, bad.detectMesonOutputs()...)

	// Rust/C++ hybrids (cxx, FFI crates): Cargo.toml
	patterns = append(patterns, bad.detectCargoOutputs()...)

	// vcpkg: manifest mode installs into vcpkg_installed/
	patterns = append(patterns, bad.detectVcpkgOutputs()...)

	return patterns
}

// detectCMakeOutputs reads binaryDir declarations from CMakePresets.json.
func (bad *BuildArtifactDetector) detectCMakeOutputs() []string {
	var patterns []string

	presetsJSON := filepath.Join(bad.projectRoot, "CMakePresets.json")
	if data, err := os.ReadFile(presetsJSON); err == nil {
		var presets struct {
			ConfigurePresets []struct {
				BinaryDir string `json:"binaryDir"`
			} `json:"configurePresets"`
		}
		if json.Unmarshal(data, &presets) == nil {
			for _, p := range presets.ConfigurePresets {
				dir := p.BinaryDir
				if dir == "" {
					continue
				}
				// Presets use macros like ${sourceDir}/out; keep the
				// trailing literal path component only.
				dir = strings.TrimPrefix(dir, "${sourceDir}/")
				dir = strings.Trim(dir, "/")
				if dir != "" && !strings.Contains(dir, "$") {
					patterns = append(patterns, "**/"+dir+"/**")
				}
			}
		}
	}

	return patterns
}

// detectMesonOutputs excludes the conventional meson build directory
// when a meson.build is present.
func (bad *BuildArtifactDetector) detectMesonOutputs() []string {
	mesonBuild := filepath.Join(bad.projectRoot, "meson.build")
	if _, err := os.Stat(mesonBuild); err != nil {
		return nil
	}
	return []string{"**/builddir/**", "**/_build/**"}
}

// detectCargoOutputs finds Rust build outputs (Cargo.toml) in mixed
// Rust/C++ trees where cxx-bridge or FFI crates sit alongside C++.
func (bad *BuildArtifactDetector) detectCargoOutputs() []string {
	var patterns []string

	cargoTOML := filepath.Join(bad.projectRoot, "Cargo.toml")
	if data, err := os.ReadFile(cargoTOML); err == nil {
		var cargo map[string]interface{}
		if toml.Unmarshal(data, &cargo) == nil {
			patterns = append(patterns, "**/target/**")

			// Custom target directory overrides the default
			if profile, ok := cargo["profile"].(map[string]interface{}); ok {
				if release, ok := profile["release"].(map[string]interface{}); ok {
					if targetDir, ok := release["target-dir"].(string); ok {
						patterns = append(patterns, "**/"+targetDir+"/**")
					}
				}
			}
		}
	}

	return patterns
}

// detectVcpkgOutputs excludes manifest-mode vcpkg installs.
func (bad *BuildArtifactDetector) detectVcpkgOutputs() []string {
	vcpkgJSON := filepath.Join(bad.projectRoot, "vcpkg.json")
	if _, err := os.Stat(vcpkgJSON); err != nil {
		return nil
	}
	return []string{"**/vcpkg_installed/**"}
}
