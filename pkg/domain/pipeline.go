package domain

import "time"

// CustomPipeline is a named, organization-selectable set of stages.
type CustomPipeline struct {
	ID          string        `json:"id" yaml:"id" mapstructure:"id"`
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	Description string        `json:"description" yaml:"description" mapstructure:"description"`
	IsDefault   bool          `json:"isDefault" yaml:"is_default" mapstructure:"is_default"`
	EntryStage  Stage         `json:"entryStage,omitempty" yaml:"entry_stage,omitempty" mapstructure:"entry_stage"`
	Stages      []StageConfig `json:"stages" yaml:"stages" mapstructure:"stages"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"-" mapstructure:"-"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"-" mapstructure:"-"`
}
