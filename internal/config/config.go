package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const fileName = "loklagbe.yml"

// Config models loklagbe.yml.
type Config struct {
	Marketplace struct {
		Name     string `yaml:"name" json:"name"`
		Currency string `yaml:"currency" json:"currency"`
	} `yaml:"marketplace" json:"marketplace"`
	Categories []Category `yaml:"categories" json:"categories"`
	Posting    struct {
		RequireVerified bool `yaml:"require_verified" json:"require_verified"`
	} `yaml:"posting" json:"posting"`
	Moderation struct {
		RequireApproval bool `yaml:"require_approval" json:"require_approval"`
	} `yaml:"moderation" json:"moderation"`
	Rating struct {
		Min int `yaml:"min" json:"min"`
		Max int `yaml:"max" json:"max"`
	} `yaml:"rating" json:"rating"`
	Notifications struct {
		Templates map[string]string `yaml:"templates" json:"templates"`
	} `yaml:"notifications" json:"notifications"`
	Webhooks []WebhookConfig `yaml:"webhooks" json:"webhooks,omitempty"`
}

// Category is one service type a posting can be filed under.
type Category struct {
	Name string `yaml:"name" json:"name"`
	Slug string `yaml:"slug,omitempty" json:"slug"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Events         []string `yaml:"events,omitempty" json:"events,omitempty"`
	Secret         string   `yaml:"secret,omitempty" json:"-"`
	Enabled        *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// Slugify lowers a category name and joins words with dashes.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// LookupCategory resolves a display name (any case) or slug to the canonical
// category name.
func (c *Config) LookupCategory(in string) (string, bool) {
	in = strings.TrimSpace(in)
	if in == "" {
		return "", false
	}
	slug := Slugify(in)
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, in) || cat.Slug == slug {
			return cat.Name, true
		}
	}
	return "", false
}

// CategoryNames returns the catalog names in configured order.
func (c *Config) CategoryNames() []string {
	out := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, cat.Name)
	}
	return out
}

// Message renders the notification template for a lifecycle action.
func (c *Config) Message(action string, data any) (string, error) {
	src, ok := c.Notifications.Templates[action]
	if !ok {
		return "", fmt.Errorf("no notification template for %s", action)
	}
	tmpl, err := template.New(action).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", action, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", action, err)
	}
	return buf.String(), nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("config.categories is required")
	}
	names := map[string]bool{}
	slugs := map[string]bool{}
	for i := range c.Categories {
		cat := &c.Categories[i]
		cat.Name = strings.TrimSpace(cat.Name)
		if cat.Name == "" {
			return fmt.Errorf("category %d has empty name", i)
		}
		if cat.Slug == "" {
			cat.Slug = Slugify(cat.Name)
		}
		key := strings.ToLower(cat.Name)
		if names[key] {
			return fmt.Errorf("duplicate category %s", cat.Name)
		}
		if slugs[cat.Slug] {
			return fmt.Errorf("duplicate category slug %s", cat.Slug)
		}
		names[key] = true
		slugs[cat.Slug] = true
	}
	if c.Rating.Min < 1 {
		return fmt.Errorf("config.rating.min must be at least 1")
	}
	if c.Rating.Max < c.Rating.Min {
		return fmt.Errorf("config.rating.max must be >= min")
	}
	for _, action := range []string{"claim", "grant", "mark_done", "confirm", "approve", "decline", "submit"} {
		src, ok := c.Notifications.Templates[action]
		if !ok || strings.TrimSpace(src) == "" {
			return fmt.Errorf("config.notifications.templates.%s is required", action)
		}
		if _, err := template.New(action).Parse(src); err != nil {
			return fmt.Errorf("config.notifications.templates.%s: %w", action, err)
		}
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhook %d has negative timeout", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, fileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with lok init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOrDefault returns the workspace config, or the default one when the
// file does not exist.
func LoadOrDefault(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	cfg, err := FromYAML([]byte(defaultTemplate))
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `marketplace:
  name: Lok Lagbe
  currency: BDT

categories:
  - name: Cleaning
  - name: Plumbing
  - name: Electrician
  - name: Painting
  - name: Carpentry
  - name: Gardening
  - name: Moving
  - name: Cooking
  - name: Babysitting
  - name: Laundry
  - name: AC Repair
  - name: Pest Control
  - name: Beauty
  - name: Car Wash
  - name: Computer Repair
  - name: Mobile Repair
  - name: Tutoring
  - name: Photography
  - name: Event Planning
  - name: Security
  - name: Other

posting:
  require_verified: true

moderation:
  require_approval: false

rating:
  min: 1
  max: 5

notifications:
  templates:
    claim: 'Will you allow {{.Actor}} to do "{{.Title}}"?'
    grant: 'You have been granted the work: {{.Title}}'
    mark_done: 'The work "{{.Title}}" has been completed. Please confirm it.'
    confirm: 'Thank you for completing "{{.Title}}". Please collect your payment.'
    approve: 'Your post "{{.Title}}" is now live.'
    decline: 'Your post "{{.Title}}" was not approved.'
    submit: 'New post "{{.Title}}" from {{.Actor}} is waiting for approval.'
`
