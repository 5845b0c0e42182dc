// Package config loads leapadmin settings. Values are layered from built-in
// defaults, leapadmin.yaml, LEAPADMIN_* environment variables and command-line
// flags, each layer overriding the previous one.
package config

import (
	"github.com/leapstack-labs/leapadmin/pkg/admin"
	"github.com/leapstack-labs/leapadmin/pkg/store"
)

// Config holds all CLI configuration options.
type Config struct {
	Title         string                `koanf:"title" json:"title" yaml:"title"`
	BaseURL       string                `koanf:"base_url" json:"base_url" yaml:"base_url"`
	Addr          string                `koanf:"addr" json:"addr" yaml:"addr"`
	Database      store.Config          `koanf:"database" json:"database" yaml:"database"`
	SessionSecret string                `koanf:"session_secret" json:"session_secret,omitempty" yaml:"session_secret,omitempty"`
	LogLevel      string                `koanf:"log_level" json:"log_level" yaml:"log_level"`
	Metrics       bool                  `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Debug         bool                  `koanf:"debug" json:"debug" yaml:"debug"`
	LogoURL       string                `koanf:"logo_url" json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
	FaviconURL    string                `koanf:"favicon_url" json:"favicon_url,omitempty" yaml:"favicon_url,omitempty"`
	OutputFormat  string                `koanf:"output" json:"output,omitempty" yaml:"output,omitempty"`
	Views         map[string]ViewConfig `koanf:"views" json:"views,omitempty" yaml:"views,omitempty"`
}

// ViewConfig overrides the defaults of one model view, keyed by table name
// under views: in the config file. Unset fields keep the view's own value.
type ViewConfig struct {
	Name           string   `koanf:"name" json:"name,omitempty" yaml:"name,omitempty"`
	PageSize       int      `koanf:"page_size" json:"page_size,omitempty" yaml:"page_size,omitempty"`
	Columns        []string `koanf:"columns" json:"columns,omitempty" yaml:"columns,omitempty"`
	Exclude        []string `koanf:"exclude" json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Hidden         *bool    `koanf:"hidden" json:"hidden,omitempty" yaml:"hidden,omitempty"`
	CanCreate      *bool    `koanf:"can_create" json:"can_create,omitempty" yaml:"can_create,omitempty"`
	CanEdit        *bool    `koanf:"can_edit" json:"can_edit,omitempty" yaml:"can_edit,omitempty"`
	CanDelete      *bool    `koanf:"can_delete" json:"can_delete,omitempty" yaml:"can_delete,omitempty"`
	CanViewDetails *bool    `koanf:"can_view_details" json:"can_view_details,omitempty" yaml:"can_view_details,omitempty"`
}

// Apply copies the set fields onto v.
func (vc ViewConfig) Apply(v *admin.ModelView) {
	if vc.Name != "" {
		v.Title = vc.Name
	}
	if vc.PageSize > 0 {
		v.PageSize = vc.PageSize
	}
	if len(vc.Columns) > 0 {
		v.ColumnList = vc.Columns
	}
	if len(vc.Exclude) > 0 {
		v.ColumnExcludeList = vc.Exclude
	}
	if vc.Hidden != nil {
		v.Hidden = *vc.Hidden
	}

	if vc.CanCreate == nil && vc.CanEdit == nil && vc.CanDelete == nil && vc.CanViewDetails == nil {
		return
	}
	p := admin.AllPermissions()
	if v.Permissions != nil {
		copied := *v.Permissions
		p = &copied
	}
	setIf(&p.Create, vc.CanCreate)
	setIf(&p.Edit, vc.CanEdit)
	setIf(&p.Delete, vc.CanDelete)
	setIf(&p.ViewDetails, vc.CanViewDetails)
	v.Permissions = p
}

func setIf(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Default configuration values.
const (
	DefaultTitle    = "LeapAdmin"
	DefaultBaseURL  = "/admin"
	DefaultAddr     = ":8000"
	DefaultDriver   = "sqlite"
	DefaultDSN      = "leapadmin.db"
	DefaultLogLevel = "info"
	DefaultOutput   = "auto" // Auto-detect: TTY=table, non-TTY=json
)

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Title:        DefaultTitle,
		BaseURL:      DefaultBaseURL,
		Addr:         DefaultAddr,
		Database:     store.Config{Driver: DefaultDriver, DSN: DefaultDSN},
		LogLevel:     DefaultLogLevel,
		Metrics:      true,
		OutputFormat: DefaultOutput,
	}
}
