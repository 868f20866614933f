package dependency

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"

	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/regex"
)

var (
	_ ports.ManifestProbe = (*PomProbe)(nil)
	_ ports.ManifestProbe = (*GradleProbe)(nil)
)

type PomProbe struct{}

func NewPomProbe() *PomProbe {
	return &PomProbe{}
}

func (p *PomProbe) Name() string {
	return "maven"
}

type pomProject struct {
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Management   []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

func (p *PomProbe) Detect(_ context.Context, root string) (*models.DependencyManifest, error) {
	const name = "pom.xml"
	data, err := readManifest(root, name)
	if err != nil || data == nil {
		return nil, err
	}

	var project pomProject
	if err := xml.Unmarshal(data, &project); err != nil {
		return nil, parseError(name, err)
	}

	deps := make(map[string]string)
	for _, group := range [][]pomDependency{project.Management, project.Dependencies} {
		for _, dep := range group {
			if dep.ArtifactID == "" {
				continue
			}
			deps[dep.GroupID+":"+dep.ArtifactID] = dep.Version
		}
	}
	return newManifest(p.Name(), name, deps), nil
}

type GradleProbe struct{}

func NewGradleProbe() *GradleProbe {
	return &GradleProbe{}
}

func (g *GradleProbe) Name() string {
	return "gradle"
}

func (g *GradleProbe) Detect(_ context.Context, root string) (*models.DependencyManifest, error) {
	for _, name := range []string{"build.gradle.kts", "build.gradle"} {
		data, err := readManifest(root, name)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}

		deps := make(map[string]string)
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if m := regex.GradleDep.FindStringSubmatch(scanner.Text()); m != nil {
				deps[m[1]+":"+m[2]] = m[3]
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, parseError(name, err)
		}
		return newManifest(g.Name(), name, deps), nil
	}
	return nil, nil
}
