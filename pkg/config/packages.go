package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PackageTier is one entry of the subscription tier catalogue
type PackageTier struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	EmployeeLimit int             `yaml:"employeeLimit"`
	Price         decimal.Decimal `yaml:"-"`
	RawPrice      string          `yaml:"price"`
	Features      []string        `yaml:"features"`
}

type packageFile struct {
	Packages []PackageTier `yaml:"packages"`
}

// DefaultPackages is used when no catalogue file is present
func DefaultPackages() []PackageTier {
	return []PackageTier{
		{ID: "basic", Name: "Basic", EmployeeLimit: 5, Price: decimal.NewFromInt(5),
			Features: []string{"Asset Tracking", "Employee Management", "Basic Support"}},
		{ID: "standard", Name: "Standard", EmployeeLimit: 10, Price: decimal.NewFromInt(8),
			Features: []string{"All Basic features", "Advanced Analytics", "Priority Support"}},
		{ID: "premium", Name: "Premium", EmployeeLimit: 20, Price: decimal.NewFromInt(15),
			Features: []string{"All Standard features", "Custom Branding", "24/7 Support"}},
	}
}

// LoadPackages parses the tier catalogue at path. A missing file yields
// DefaultPackages.
func LoadPackages(path string) ([]PackageTier, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPackages(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read packages file: %w", err)
	}
	return ParsePackages(data)
}

// ParsePackages decodes and validates a YAML tier catalogue
func ParsePackages(data []byte) ([]PackageTier, error) {
	var file packageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode packages file: %w", err)
	}
	if len(file.Packages) == 0 {
		return nil, errors.New("packages file declares no packages")
	}

	seen := make(map[string]bool, len(file.Packages))
	for i := range file.Packages {
		p := &file.Packages[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("package %d: id and name are required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("package %q declared twice", p.ID)
		}
		seen[p.ID] = true
		if p.EmployeeLimit < 1 {
			return nil, fmt.Errorf("package %q: employeeLimit must be positive", p.ID)
		}
		price, err := decimal.NewFromString(p.RawPrice)
		if err != nil {
			return nil, fmt.Errorf("package %q: invalid price %q: %w", p.ID, p.RawPrice, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("package %q: price must not be negative", p.ID)
		}
		p.Price = price
	}
	return file.Packages, nil
}
