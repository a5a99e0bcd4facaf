package modlauncher

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/tie/modlauncher/maven"
)

// Build identifies one buildable client configuration.
type Build struct {
	ID                  int    `json:"buildId"`
	CommitID            string `json:"commitId"`
	Branch              string `json:"branch,omitempty"`
	MinecraftVersion    string `json:"mcVersion"`
	FabricLoaderVersion string `json:"fabricLoaderVersion,omitempty"`
}

// LaunchManifest lists the mods, repositories and loader for a build.
type LaunchManifest struct {
	Build        Build             `json:"build"`
	Loader       Loader            `json:"loader"`
	Mods         []Mod             `json:"mods"`
	Repositories map[string]string `json:"repositories"`
}

type Subsystem string

const (
	SubsystemFabric Subsystem = "fabric"
	SubsystemForge  Subsystem = "forge"
)

func (s *Subsystem) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch sub := Subsystem(strings.ToLower(v)); sub {
	case SubsystemFabric, SubsystemForge:
		*s = sub
		return nil
	}
	return InvalidDescriptor("unknown loader subsystem %q", v)
}

// Loader describes the modding framework of a build.
type Loader struct {
	Subsystem Subsystem `json:"subsystem"`

	// LauncherManifest is the version profile URL. For Fabric it is a
	// template with {MINECRAFT_VERSION} and {FABRIC_LOADER_VERSION}
	// placeholders.
	LauncherManifest string `json:"launcherManifest"`
}

// Mod is one entry of the launch manifest.
type Mod struct {
	// Name is used both for display and as the jar file name
	// in the mods directory.
	Name string

	// Required mods are always installed.
	Required bool
	// Default mods are installed unless deselected.
	Default bool

	Source Source
}

// Selected reports whether the mod must be present in the mods directory.
func (m Mod) Selected() bool {
	return m.Required || m.Default
}

// FileName returns the name of the mod file in the mods directory. The
// mod name must be a single path element.
func (m Mod) FileName() (string, error) {
	name := m.Name
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", InvalidDescriptor("bad mod name %q", name)
	}
	return name + ".jar", nil
}

type jsonMod struct {
	Name     string          `json:"name"`
	Required bool            `json:"required"`
	Default  bool            `json:"default"`
	Source   json.RawMessage `json:"source"`
}

type jsonSource struct {
	Type         string `json:"type"`
	ArtifactName string `json:"artifactName,omitempty"`
	URL          string `json:"url,omitempty"`
	Extract      bool   `json:"extract,omitempty"`
	Repository   string `json:"repository,omitempty"`
	Artifact     string `json:"artifact,omitempty"`
}

const (
	sourceDirect     = "direct"
	sourceRepository = "repository"
)

func (m *Mod) UnmarshalJSON(data []byte) error {
	var jm jsonMod
	if err := json.Unmarshal(data, &jm); err != nil {
		return err
	}
	var js jsonSource
	if err := json.Unmarshal(jm.Source, &js); err != nil {
		return InvalidDescriptor("mod %q: source: %v", jm.Name, err)
	}
	var src Source
	switch js.Type {
	case sourceDirect, "skipAd":
		src = DirectDownload{
			ArtifactName: js.ArtifactName,
			URL:          js.URL,
			Extract:      js.Extract,
		}
	case sourceRepository:
		src = RepositoryArtifact{
			Repository: js.Repository,
			Artifact:   js.Artifact,
		}
	default:
		return InvalidDescriptor("mod %q: unknown source type %q", jm.Name, js.Type)
	}
	*m = Mod{
		Name:     jm.Name,
		Required: jm.Required,
		Default:  jm.Default,
		Source:   src,
	}
	return nil
}

func (m Mod) MarshalJSON() ([]byte, error) {
	var js jsonSource
	switch src := m.Source.(type) {
	case DirectDownload:
		js = jsonSource{
			Type:         sourceDirect,
			ArtifactName: src.ArtifactName,
			URL:          src.URL,
			Extract:      src.Extract,
		}
	case RepositoryArtifact:
		js = jsonSource{
			Type:       sourceRepository,
			Repository: src.Repository,
			Artifact:   src.Artifact,
		}
	default:
		return nil, InvalidDescriptor("mod %q: missing source", m.Name)
	}
	raw, err := json.Marshal(js)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonMod{
		Name:     m.Name,
		Required: m.Required,
		Default:  m.Default,
		Source:   raw,
	})
}

// Source is where a mod is acquired from. It is implemented only by
// DirectDownload and RepositoryArtifact.
type Source interface {
	// CachePath returns the slash-separated cache key of the source,
	// relative to the cache root.
	CachePath() (string, error)

	isSource()
}

// DirectDownload is fetched from URL. If Extract is set the response
// is a zip archive and its first jar entry is the mod.
type DirectDownload struct {
	ArtifactName string
	URL          string
	Extract      bool
}

// RepositoryArtifact is fetched from a Maven repository named in
// LaunchManifest.Repositories.
type RepositoryArtifact struct {
	Repository string
	Artifact   string
}

func (DirectDownload) isSource()     {}
func (RepositoryArtifact) isSource() {}

func (s DirectDownload) CachePath() (string, error) {
	name := s.ArtifactName
	if name == "" || strings.ContainsRune(name, '\\') || path.IsAbs(name) {
		return "", InvalidDescriptor("bad artifact name %q", name)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", InvalidDescriptor("bad artifact name %q", name)
	}
	return path.Join("direct", clean+".jar"), nil
}

func (s RepositoryArtifact) CachePath() (string, error) {
	p, err := maven.Path(s.Artifact)
	if err != nil {
		return "", InvalidDescriptor("artifact %q: %v", s.Artifact, err)
	}
	return path.Join("maven", p), nil
}
