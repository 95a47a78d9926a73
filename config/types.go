package config

type ContextSelection struct {
	Name      string
	Overrides map[string]string
}

const (
	ContextFileEnvVar         = "LIOCTL_CONTEXTS_FILE"
	DefaultContextCatalogPath = "~/.lioctl/contexts.yaml"
	// SystemContextCatalogPath is read when the user catalog does not exist.
	SystemContextCatalogPath = "/etc/lioctl/contexts.yaml"
	DefaultContextName        = "default"
	DefaultTargetcliBinary    = "targetcli"
	DefaultSavefile           = "/etc/target/saveconfig.json"
)

// Override keys accepted by ContextSelection.Overrides.
const (
	OverrideTargetcliBinary   = "targetcli.binary"
	OverrideTargetcliSavefile = "targetcli.savefile"
	OverrideManifestsDir      = "manifests.dir"
	OverrideArchiveGitBaseDir = "archive.git.base-dir"
	OverrideMetricsTextfile   = "metrics.textfile"
)

type ContextCatalog struct {
	Contexts   []Context `yaml:"contexts" json:"contexts"`
	CurrentCtx string    `yaml:"current-ctx" json:"current-ctx"`
}

type Context struct {
	Name        string    `yaml:"name" json:"name"`
	Targetcli   Targetcli `yaml:"targetcli,omitempty" json:"targetcli,omitempty"`
	Manifests   Manifests `yaml:"manifests,omitempty" json:"manifests,omitempty"`
	Archive     *Archive  `yaml:"archive,omitempty" json:"archive,omitempty"`
	Metrics     *Metrics  `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	StopOnError bool      `yaml:"stop-on-error,omitempty" json:"stop-on-error,omitempty"`
}

type Targetcli struct {
	Binary     string `yaml:"binary,omitempty" json:"binary,omitempty"`
	Savefile   string `yaml:"savefile,omitempty" json:"savefile,omitempty"`
	MinVersion string `yaml:"min-version,omitempty" json:"min-version,omitempty"`
}

type Manifests struct {
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

type Archive struct {
	Git *GitArchive `yaml:"git,omitempty" json:"git,omitempty"`
}

type GitArchive struct {
	BaseDir  string `yaml:"base-dir" json:"base-dir"`
	AutoInit *bool  `yaml:"auto-init,omitempty" json:"auto-init,omitempty"`
}

func (g GitArchive) AutoInitEnabled() bool {
	if g.AutoInit == nil {
		return true
	}
	return *g.AutoInit
}

type Metrics struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// DefaultContext is used when no catalog file exists.
func DefaultContext() Context {
	return Context{
		Name: DefaultContextName,
		Targetcli: Targetcli{
			Binary:   DefaultTargetcliBinary,
			Savefile: DefaultSavefile,
		},
	}
}
