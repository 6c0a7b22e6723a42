package loam

import (
	"github.com/aretw0/brokerdesk/pkg/domain"
)

// PipelineMetadata represents the frontmatter of a pipeline document.
// Loam decodes frontmatter through encoding/json, so the json tags carry the
// same snake_case keys as pipelines.yaml.
type PipelineMetadata struct {
	ID          string          `json:"id" mapstructure:"id"`
	Name        string          `json:"name" mapstructure:"name"`
	Description string          `json:"description" mapstructure:"description"`
	IsDefault   bool            `json:"is_default" mapstructure:"is_default"`
	EntryStage  string          `json:"entry_stage" mapstructure:"entry_stage"`
	Stages      []StageMetadata `json:"stages" mapstructure:"stages"`
}

// StageMetadata is one stage entry of a pipeline document.
type StageMetadata struct {
	ID                 string   `json:"id" mapstructure:"id"`
	Title              string   `json:"title" mapstructure:"title"`
	Description        string   `json:"description" mapstructure:"description"`
	Color              string   `json:"color" mapstructure:"color"`
	BgColor            string   `json:"bg_color" mapstructure:"bg_color"`
	Order              int      `json:"order" mapstructure:"order"`
	AllowedTransitions []string `json:"allowed_transitions" mapstructure:"allowed_transitions"`
	RequiredDocuments  []string `json:"required_documents" mapstructure:"required_documents"`
	AutomatedActions   []string `json:"automated_actions" mapstructure:"automated_actions"`
}

func (s StageMetadata) toDomain() domain.StageConfig {
	cfg := domain.StageConfig{
		ID:               domain.Stage(s.ID),
		Title:            s.Title,
		Description:      s.Description,
		Color:            s.Color,
		BgColor:          s.BgColor,
		Order:            s.Order,
		AutomatedActions: s.AutomatedActions,
	}
	for _, t := range s.AllowedTransitions {
		cfg.AllowedTransitions = append(cfg.AllowedTransitions, domain.Stage(t))
	}
	for _, d := range s.RequiredDocuments {
		cfg.RequiredDocuments = append(cfg.RequiredDocuments, domain.DocumentType(d))
	}
	return cfg
}
