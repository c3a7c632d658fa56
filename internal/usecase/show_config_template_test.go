package usecase

import (
	"context"
	"testing"

	"github.com/runoshun/quire/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowConfigTemplate_Execute(t *testing.T) {
	tests := []struct {
		name           string
		input          ShowConfigTemplateInput
		wantContains   []string
		wantNotContain []string
	}{
		{
			name: "template with defaults",
			input: ShowConfigTemplateInput{
				Config: domain.NewDefaultConfig(),
			},
			wantContains: []string{
				"[repo]",
				`default_branch = "master"`,
				"push_retries = 3",
				`name_window = "1m0s"`,
			},
		},
		{
			name: "template with origin",
			input: ShowConfigTemplateInput{
				Config: func() *domain.Config {
					cfg := domain.NewDefaultConfig()
					cfg.Repo.Origin = "/srv/content.git"
					return cfg
				}(),
			},
			wantContains: []string{
				`origin = "/srv/content.git"`,
			},
		},
	}

	t.Run("nil config", func(t *testing.T) {
		_, err := NewShowConfigTemplate().Execute(context.Background(), ShowConfigTemplateInput{})
		assert.ErrorIs(t, err, domain.ErrConfigNil)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewShowConfigTemplate()
			out, err := uc.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.NotNil(t, out)

			for _, want := range tt.wantContains {
				assert.Contains(t, out.Template, want, "template should contain %q", want)
			}

			for _, notWant := range tt.wantNotContain {
				assert.NotContains(t, out.Template, notWant, "template should not contain %q", notWant)
			}
		})
	}
}
