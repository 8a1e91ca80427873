package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/airo/internal/project"
)

// Manifest returns the dependency manifest for the project language. The
// name is empty for languages without one.
func Manifest(res *project.Result) (string, []byte, error) {
	slug := project.Slug(res.Request.Name)
	withTests := len(res.Tests) > 0

	var (
		data []byte
		err  error
	)
	switch res.Request.Language {
	case project.Python:
		data = requirements(withTests)
	case project.JavaScript, project.TypeScript:
		data, err = packageJSON(slug, res.Request.Description, res.Request.Language, withTests)
	case project.Go:
		data = goMod(slug)
	case project.Rust:
		data, err = cargoToml(slug, res.Request.Description)
	case project.Java:
		data, err = pomXML(slug, res.Request.Description, withTests)
	default:
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("building %s manifest: %w", res.Request.Language, err)
	}
	return res.Request.Language.Info().PackageFile, data, nil
}

func requirements(withTests bool) []byte {
	s := "# Generated by AIRO\n# Add your project dependencies here\n"
	if withTests {
		s += "pytest>=7.0\n"
	}
	return []byte(s)
}

type npmPackage struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Scripts         map[string]string `json:"scripts"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func packageJSON(slug, description string, lang project.Language, withTests bool) ([]byte, error) {
	pkg := npmPackage{
		Name:            slug,
		Version:         "1.0.0",
		Description:     description,
		Scripts:         map[string]string{"test": "jest"},
		DevDependencies: map[string]string{},
	}
	if withTests {
		pkg.DevDependencies["jest"] = "^29.0.0"
	}
	if lang == project.TypeScript {
		pkg.Scripts["build"] = "tsc"
		pkg.DevDependencies["typescript"] = "^5.0.0"
		if withTests {
			pkg.DevDependencies["ts-jest"] = "^29.0.0"
		}
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func goMod(slug string) []byte {
	return []byte(fmt.Sprintf("module %s\n\ngo 1.22\n", slug))
}

type cargoManifest struct {
	Package      cargoPackage      `toml:"package"`
	Dependencies map[string]string `toml:"dependencies"`
}

type cargoPackage struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Edition     string `toml:"edition"`
	Description string `toml:"description,omitempty"`
}

func cargoToml(slug, description string) ([]byte, error) {
	m := cargoManifest{
		Package: cargoPackage{
			Name:        slug,
			Version:     "0.1.0",
			Edition:     "2021",
			Description: description,
		},
		Dependencies: map[string]string{},
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pom struct {
	XMLName      xml.Name        `xml:"project"`
	Xmlns        string          `xml:"xmlns,attr"`
	ModelVersion string          `xml:"modelVersion"`
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Description  string          `xml:"description,omitempty"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency,omitempty"`
}

type pomProperties struct {
	Source   string `xml:"maven.compiler.source"`
	Target   string `xml:"maven.compiler.target"`
	Encoding string `xml:"project.build.sourceEncoding"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope,omitempty"`
}

func pomXML(slug, description string, withTests bool) ([]byte, error) {
	p := pom{
		Xmlns:        "http://maven.apache.org/POM/4.0.0",
		ModelVersion: "4.0.0",
		GroupID:      "com.airo.generated",
		ArtifactID:   slug,
		Version:      "1.0.0",
		Description:  description,
		Properties:   pomProperties{Source: "17", Target: "17", Encoding: "UTF-8"},
	}
	if withTests {
		p.Dependencies = append(p.Dependencies, pomDependency{
			GroupID: "org.junit.jupiter", ArtifactID: "junit-jupiter", Version: "5.10.0", Scope: "test",
		})
	}
	data, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}
