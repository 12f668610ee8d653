package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoDefault       = errors.New("no default profile set")
)

var validate = validator.New()

// Profile is a named reference to one cluster.
type Profile struct {
	Name        string `yaml:"-"`
	Host        string `yaml:"host" validate:"required,hostname_rfc1123|ip"`
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	Token       string `yaml:"token" validate:"required"`
	Insecure    bool   `yaml:"insecure,omitempty"`
	ClusterUUID string `yaml:"cluster_uuid,omitempty"`
	// BaseURL replaces https://host:port; used against test servers.
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// URL returns the base URL requests for this profile are sent to.
func (p Profile) URL() string {
	if p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/")
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		return strings.TrimRight(v, "/")
	}
	return fmt.Sprintf("https://%s:%d", p.Host, p.Port)
}

// Validate checks the profile fields.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("profile %q: invalid %s (%s)", p.Name, strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// Store is the persisted profile set.
type Store struct {
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles"`

	path string
}

// Load reads the profile store from path. A missing file yields an empty
// store.
func Load(path string) (*Store, error) {
	s := &Store{Profiles: map[string]Profile{}, path: path}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		slog.Warn("profile store is readable by other users; tokens may be exposed",
			"path", path, "mode", fmt.Sprintf("%04o", perm))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.Profiles == nil {
		s.Profiles = map[string]Profile{}
	}
	for name, p := range s.Profiles {
		p.Name = name
		s.Profiles[name] = p
	}
	return s, nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string { return s.path }

// Save writes the whole store atomically (temp file + rename).
func (s *Store) Save() error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing profiles: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Names returns profile names sorted lexicographically. This is the
// iteration order of the full profile set.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named profile.
func (s *Store) Get(name string) (Profile, error) {
	p, ok := s.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	p.Name = name
	return p, nil
}

// Resolve picks a single profile: the explicit name, else QONTROL_PROFILE,
// else the stored default.
func (s *Store) Resolve(name string) (Profile, error) {
	if name == "" {
		name = os.Getenv(EnvProfile)
	}
	if name == "" {
		name = s.DefaultProfile
	}
	if name == "" {
		if len(s.Profiles) == 1 {
			return s.Get(s.Names()[0])
		}
		return Profile{}, ErrNoDefault
	}
	return s.Get(name)
}

// Select returns the working set for fleet commands: the filtered profiles
// in filter order, or every profile in name order.
func (s *Store) Select(filter []string) ([]Profile, error) {
	var out []Profile
	if len(filter) == 0 {
		for _, name := range s.Names() {
			out = append(out, s.Profiles[name])
		}
	} else {
		seen := make(map[string]bool)
		for _, name := range filter {
			if seen[name] {
				continue
			}
			seen[name] = true
			p, err := s.Get(name)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoProfiles
	}
	return out, nil
}

// Add inserts or replaces a profile after validating it.
func (s *Store) Add(p Profile) error {
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.Profiles[p.Name] = p
	if s.DefaultProfile == "" {
		s.DefaultProfile = p.Name
	}
	return nil
}

// Remove deletes a profile, clearing the default if it pointed at it.
func (s *Store) Remove(name string) error {
	if _, ok := s.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	delete(s.Profiles, name)
	if s.DefaultProfile == name {
		s.DefaultProfile = ""
	}
	return nil
}

// SetDefault marks name as the default profile.
func (s *Store) SetDefault(name string) error {
	if _, ok := s.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.DefaultProfile = name
	return nil
}

// SetClusterUUID records a backfilled cluster UUID. It reports whether the
// store changed.
func (s *Store) SetClusterUUID(name, uuid string) bool {
	p, ok := s.Profiles[name]
	if !ok || uuid == "" || p.ClusterUUID == uuid {
		return false
	}
	p.ClusterUUID = uuid
	s.Profiles[name] = p
	return true
}
