package achievements

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

//go:embed catalog.yaml
var catalogFS embed.FS

type yamlCatalog struct {
	Catalog      string            `yaml:"catalog" validate:"required"`
	Version      int               `yaml:"version" validate:"gte=1"`
	Achievements []yamlAchievement `yaml:"achievements" validate:"required,min=1,dive"`
}

type yamlAchievement struct {
	Code             string `yaml:"code" validate:"required,max=64"`
	Name             string `yaml:"name" validate:"required,max=128"`
	Description      string `yaml:"description"`
	Category         string `yaml:"category"`
	RequirementType  string `yaml:"requirement_type" validate:"required"`
	RequirementValue int64  `yaml:"requirement_value" validate:"gte=1"`
	Points           int    `yaml:"points" validate:"gte=0"`
	Active           *bool  `yaml:"active"`
}

var validate = validator.New()

// LoadCatalog reads the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) ([]*types.Achievement, error) {
	var (
		data []byte
		err  error
	)
	if p := strings.TrimSpace(path); p != "" {
		data, err = os.ReadFile(p)
	} else {
		data, err = catalogFS.ReadFile("catalog.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read achievement catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]*types.Achievement, error) {
	var cat yamlCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode achievement catalog: %w", err)
	}
	if err := validate.Struct(&cat); err != nil {
		return nil, fmt.Errorf("invalid achievement catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(cat.Achievements))
	out := make([]*types.Achievement, 0, len(cat.Achievements))
	for i, a := range cat.Achievements {
		code := strings.ToLower(strings.TrimSpace(a.Code))
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("achievement %d: duplicate code %q", i, code)
		}
		seen[code] = struct{}{}

		rt, err := personalization.ParseRequirementType(a.RequirementType)
		if err != nil {
			return nil, fmt.Errorf("achievement %q: %w", code, err)
		}
		active := true
		if a.Active != nil {
			active = *a.Active
		}
		out = append(out, &types.Achievement{
			Code:             code,
			Name:             strings.TrimSpace(a.Name),
			Description:      strings.TrimSpace(a.Description),
			Category:         strings.TrimSpace(a.Category),
			RequirementType:  rt,
			RequirementValue: a.RequirementValue,
			Points:           a.Points,
			Active:           active,
		})
	}
	return out, nil
}
