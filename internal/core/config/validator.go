package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateScan(cfg); err != nil {
		return err
	}
	if err := validateExtensions("languages.extensions", cfg.Languages.Extensions); err != nil {
		return err
	}
	if err := validateExtensions("languages.jsx_extensions", cfg.Languages.JSXExtensions); err != nil {
		return err
	}
	if err := validateResolver(cfg); err != nil {
		return err
	}
	if err := validateDatabase(cfg); err != nil {
		return err
	}
	return validateWatch(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	for _, pattern := range append(append([]string(nil), cfg.Scan.ExcludeDirs...), cfg.Scan.ExcludeFiles...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateExtensions(field string, exts []string) error {
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%s entry %q must start with '.'", field, ext)
		}
	}
	return nil
}

func validateResolver(cfg *Config) error {
	if err := validateExtensions("resolver.extensions", cfg.Resolver.Extensions); err != nil {
		return err
	}
	for _, name := range cfg.Resolver.IndexFiles {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("resolver.index_files entry %q must be a bare file name", name)
		}
	}
	for prefix, target := range cfg.Resolver.Aliases {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("resolver.aliases contains an empty prefix")
		}
		if strings.HasPrefix(prefix, ".") {
			return fmt.Errorf("resolver.aliases prefix %q must not be relative", prefix)
		}
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("resolver.aliases[%q] must not be empty", prefix)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if cfg.DB.Keep < 0 {
		return fmt.Errorf("db.keep must not be negative")
	}
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0")
	}
	return nil
}
