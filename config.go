package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	appName         = "checklist"
	defaultTodoTags = "todo"
)

type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	Profiles       map[string]Profile `toml:"profiles"`
	Theme          string             `toml:"theme"`
	LogLevel       string             `toml:"log_level"`
	LogFile        string             `toml:"log_file"`
	Settings       Settings           `toml:"settings"`
}

type Profile struct {
	Vault  string `toml:"vault"`
	Search string `toml:"search"`
	Tags   string `toml:"todo_tags"`
}

type ResolvedProfile struct {
	Name      string
	VaultPath string
	Search    string
	Tags      string
}

// Settings enumerates every option the pipeline and renderers read.
// DefaultSettings documents the value of each option when it is missing.
type Settings struct {
	// Newline separated tag names to collect todos from. Empty means every tag.
	TodoTags string `toml:"todo_tags"`
	// Tags removed from TodoTags without editing it
	HiddenTags []string `toml:"hidden_tags"`
	// Refresh when the vault reports a change
	AutoRefresh bool `toml:"auto_refresh"`
	// Glob over vault relative paths; empty includes every document
	IncludeFiles string `toml:"include_files"`
	ShowChecked  bool   `toml:"show_checked"`
	// Include todos outside of any matching tag scope
	ShowAllTodos bool `toml:"show_all_todos"`

	GroupBy             GroupField    `toml:"group_by"`
	SubGroupBy          GroupField    `toml:"sub_group_by"`
	SortDirectionGroups SortDirection `toml:"sort_direction_groups"`
	SortDirectionItems  SortDirection `toml:"sort_direction_items"`
	SortDirectionSubs   SortDirection `toml:"sort_direction_sub_groups"`

	Search            string   `toml:"search"`
	LookAndFeel       string   `toml:"look_and_feel"` // "classic" or "compact"
	CollapsedSections []string `toml:"collapsed_sections"`
}

// DefaultSettings returns the settings used for options a config omits
func DefaultSettings() Settings {
	return Settings{
		TodoTags:            defaultTodoTags,
		AutoRefresh:         true,
		GroupBy:             GroupFile,
		SubGroupBy:          GroupNone,
		SortDirectionGroups: SortAsc,
		SortDirectionItems:  SortAsc,
		SortDirectionSubs:   SortAsc,
		LookAndFeel:         "classic",
	}
}

// StaticSettings is a SettingsSource over a fixed value
type StaticSettings Settings

func (s StaticSettings) Settings() Settings {
	return Settings(s)
}

// ViewSettings is the snapshot handed to renderers
type ViewSettings struct {
	TodoTags          []string
	HiddenTags        []string
	LookAndFeel       string
	SubGroups         bool
	CollapsedSections []string
	Search            string
	GroupBy           GroupField
}

// TodoTagList splits TodoTags into lowercased, non-empty tag names
func (s Settings) TodoTagList() []string {
	var tags []string

	for _, line := range strings.Split(strings.TrimSpace(s.TodoTags), "\n") {
		tag := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// VisibleTodoTags returns TodoTagList without the hidden tags
func (s Settings) VisibleTodoTags() []string {
	return visibleTags(s.TodoTagList(), s.HiddenTags)
}

// visibleTags drops the tags named in hidden, ignoring case and a leading hash
func visibleTags(tags, hidden []string) []string {
	return Filter(tags, func(tag string) bool {
		return !slices.ContainsFunc(hidden, func(h string) bool {
			return strings.EqualFold(strings.TrimPrefix(h, "#"), strings.TrimPrefix(tag, "#"))
		})
	})
}

// TagFilters returns the filters for parsing. No configured tags means the
// wildcard; hiding every configured tag leaves no filter at all.
func (s Settings) TagFilters() []string {
	if len(s.TodoTagList()) == 0 {
		return []string{wildcardTag}
	}
	return s.VisibleTodoTags()
}

func (s Settings) ParseOptions() ParseOptions {
	return ParseOptions{
		TagFilters:   s.TagFilters(),
		ShowChecked:  s.ShowChecked,
		ShowAllTodos: s.ShowAllTodos,
	}
}

func (s Settings) GroupOptions() GroupOptions {
	return GroupOptions{
		GroupBy:      s.GroupBy,
		GroupSort:    s.SortDirectionGroups,
		ItemSort:     s.SortDirectionItems,
		SubGroupBy:   s.SubGroupBy,
		SubGroupSort: s.SortDirectionSubs,
	}
}

func (s Settings) View(search string) ViewSettings {
	return ViewSettings{
		TodoTags:          s.TodoTagList(),
		HiddenTags:        s.HiddenTags,
		LookAndFeel:       s.LookAndFeel,
		SubGroups:         s.SubGroupBy != "" && s.SubGroupBy != GroupNone,
		CollapsedSections: s.CollapsedSections,
		Search:            search,
		GroupBy:           s.GroupBy,
	}
}

// IncludePredicate returns the include_files test for a document path
func (s Settings) IncludePredicate() func(string) bool {
	pattern := strings.TrimSpace(s.IncludeFiles)
	if pattern == "" {
		return func(string) bool { return true }
	}

	return func(p string) bool {
		return matchGlob(pattern, p)
	}
}

// containsGlob reports whether a path contains glob metacharacters
func containsGlob(p string) bool {
	return strings.ContainsAny(p, "*?[")
}

// matchGlob matches a slash separated path against a pattern where "**"
// spans directories. A pattern without glob characters matches the path
// itself or anything below it.
func matchGlob(pattern, p string) bool {
	pattern = strings.Trim(filepath.ToSlash(pattern), "/")

	if !containsGlob(pattern) {
		return p == pattern || strings.HasPrefix(p, pattern+"/")
	}

	return matchSegments(strings.Split(pattern, "/"), strings.Split(p, "/"))
}

func matchSegments(pattern, parts []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pattern[1:], parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], parts[0]); err != nil || !ok {
			return false
		}

		pattern, parts = pattern[1:], parts[1:]
	}

	return len(parts) == 0
}

type ProfileError struct {
	Profile string
	Field   string
	Err     error
}

func (e *ProfileError) Error() string {
	if e.Profile == "" {
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}

	if e.Field == "" {
		return fmt.Sprintf("profile %q: %v", e.Profile, e.Err)
	}

	return fmt.Sprintf("profile %q: %s: %v", e.Profile, e.Field, e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyPath    = errors.New("path is empty")
	ErrPathNotExist = errors.New("path does not exist")
	ErrNotDirectory = errors.New("path is not a directory")
)

func validateProfile(name string, p Profile) error {
	if strings.TrimSpace(p.Vault) == "" {
		return &ProfileError{Profile: name, Field: "vault", Err: ErrEmptyPath}
	}

	return nil
}

func validateVaultExists(name, vaultPath string) error {
	info, err := os.Stat(vaultPath)

	if err != nil {
		if os.IsNotExist(err) {
			return &ProfileError{Profile: name, Field: "vault", Err: fmt.Errorf("%w: %s", ErrPathNotExist, vaultPath)}
		}

		return &ProfileError{Profile: name, Field: "vault", Err: err}
	}

	if !info.IsDir() {
		return &ProfileError{Profile: name, Field: "vault", Err: fmt.Errorf("%w: %s", ErrNotDirectory, vaultPath)}
	}

	return nil
}

func validateConfig(cfg Config) error {
	if cfg.DefaultProfile != "" && cfg.Profiles != nil {
		if _, ok := cfg.Profiles[cfg.DefaultProfile]; !ok {
			return &ProfileError{Field: "default_profile", Err: fmt.Errorf("profile %q not found", cfg.DefaultProfile)}
		}
	}

	if look := cfg.Settings.LookAndFeel; look != "" && look != "classic" && look != "compact" {
		return &ProfileError{Field: "settings.look_and_feel", Err: fmt.Errorf("unknown value %q", look)}
	}

	return nil
}

func selectProfile(profileFlag string, cfg Config) (string, *Profile, error) {
	if profileFlag != "" {
		if cfg.Profiles == nil {
			return "", nil, &ProfileError{Profile: profileFlag, Err: errors.New("no profiles defined in config")}
		}

		p, ok := cfg.Profiles[profileFlag]

		if !ok {
			return "", nil, &ProfileError{Profile: profileFlag, Err: errors.New("profile not found")}
		}

		return profileFlag, &p, nil
	}

	if cfg.DefaultProfile != "" {
		p, ok := cfg.Profiles[cfg.DefaultProfile]

		if !ok {
			return "", nil, &ProfileError{Field: "default_profile", Err: fmt.Errorf("profile %q not found", cfg.DefaultProfile)}
		}

		return cfg.DefaultProfile, &p, nil
	}

	return "", nil, nil
}

func resolveProfilePaths(name string, p Profile) (*ResolvedProfile, error) {
	if err := validateProfile(name, p); err != nil {
		return nil, err
	}

	vaultPath, err := resolveVaultPath(p.Vault)

	if err != nil {
		return nil, &ProfileError{Profile: name, Field: "vault", Err: err}
	}

	vaultPath = filepath.Clean(vaultPath)
	resolved, err := filepath.EvalSymlinks(vaultPath)
	if err == nil {
		vaultPath = resolved
	}

	if err := validateVaultExists(name, vaultPath); err != nil {
		return nil, err
	}

	return &ResolvedProfile{Name: name, VaultPath: vaultPath, Search: strings.TrimSpace(p.Search), Tags: p.Tags}, nil
}

// apply overlays the profile's options on settings
func (r *ResolvedProfile) apply(s Settings) Settings {
	if r == nil {
		return s
	}
	if strings.TrimSpace(r.Tags) != "" {
		s.TodoTags = r.Tags
	}
	if r.Search != "" {
		s.Search = r.Search
	}
	return s
}

func configPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, appName, "config.toml"), nil
}

func loadConfig() (Config, string, error) {
	cfgPath, err := configPath()

	if err != nil {
		return Config{}, "", err
	}

	cfg, err := loadConfigFile(cfgPath)
	return cfg, cfgPath, err
}

// loadConfigFile decodes a config over the defaults. A missing file yields
// the defaults.
func loadConfigFile(cfgPath string) (Config, error) {
	cfg := Config{Settings: DefaultSettings()}

	data, err := os.ReadFile(cfgPath)

	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return Config{}, err
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding %s: %w", cfgPath, err)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func expandPath(value string) (string, error) {
	value = strings.TrimSpace(value)

	if value == "" {
		return value, nil
	}

	expanded := os.ExpandEnv(value)

	if !strings.HasPrefix(expanded, "~") {
		return expanded, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if expanded == "~" {
		return homeDir, nil
	}

	if strings.HasPrefix(expanded, "~/") {
		return filepath.Join(homeDir, expanded[2:]), nil
	}

	if strings.HasPrefix(expanded, "~\\") {
		return filepath.Join(homeDir, expanded[2:]), nil
	}

	return expanded, nil
}

func resolveVaultPath(value string) (string, error) {
	expanded, err := expandPath(value)

	if err != nil {
		return "", err
	}

	if expanded == "" || filepath.IsAbs(expanded) {
		return expanded, nil
	}

	homeDir, err := os.UserHomeDir()

	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, expanded), nil
}
