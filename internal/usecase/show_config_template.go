package usecase

import (
	"context"

	"github.com/runoshun/quire/internal/domain"
)

// ShowConfigTemplateInput contains the parameters for printing config.toml.
type ShowConfigTemplateInput struct {
	Config *domain.Config // Values written into the [repo], [clones], [sync], [task], [log] and [actor] sections
}

// ShowConfigTemplateOutput contains the rendered config.toml.
type ShowConfigTemplateOutput struct {
	Template string
}

// ShowConfigTemplate renders config.toml without reading any config file, so
// it works while the loaded config is broken.
type ShowConfigTemplate struct{}

// NewShowConfigTemplate creates a new ShowConfigTemplate use case.
func NewShowConfigTemplate() *ShowConfigTemplate {
	return &ShowConfigTemplate{}
}

// Execute renders in.Config with the commented config.toml template.
func (uc *ShowConfigTemplate) Execute(_ context.Context, in ShowConfigTemplateInput) (*ShowConfigTemplateOutput, error) {
	if in.Config == nil {
		return nil, domain.ErrConfigNil
	}
	return &ShowConfigTemplateOutput{Template: domain.RenderConfigTemplate(in.Config)}, nil
}
