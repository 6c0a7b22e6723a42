package domain

// Stage identifies a step of a client's brokerage workflow (e.g. "lead-intake").
type Stage string

// Default pipeline stages.
const (
	StageLeadIntake         Stage = "lead-intake"
	StageClientOnboarding   Stage = "client-onboarding"
	StageBudgetProcessing   Stage = "budget-processing"
	StageDocumentManagement Stage = "document-management"
	StageBillingAutomation  Stage = "billing-automation"
	StageCompleted          Stage = "completed"
)

// DocumentType tags the paperwork a stage requires.
type DocumentType string

const (
	DocLifePlan        DocumentType = "life-plan"
	DocLOCForm         DocumentType = "loc-form"
	DocNOD             DocumentType = "nod"
	DocDDP2Profile     DocumentType = "ddp2-profile"
	DocServiceAuth     DocumentType = "service-auth"
	DocSafeguards      DocumentType = "safeguards"
	DocPsychEval       DocumentType = "psych-eval"
	DocBrokerAgreement DocumentType = "broker-agreement"
	DocSAP             DocumentType = "sap"
)

// StageConfig holds the display metadata and transition rules for one Stage.
type StageConfig struct {
	ID          Stage  `json:"id" yaml:"id" mapstructure:"id"`
	Title       string `json:"title" yaml:"title" mapstructure:"title"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty" mapstructure:"color"`
	BgColor     string `json:"bgColor,omitempty" yaml:"bg_color,omitempty" mapstructure:"bg_color"`
	Order       int    `json:"order" yaml:"order" mapstructure:"order"`

	// AllowedTransitions lists the stages a client may move to from this one.
	AllowedTransitions []Stage `json:"allowedTransitions" yaml:"allowed_transitions" mapstructure:"allowed_transitions"`

	RequiredDocuments []DocumentType `json:"requiredDocuments" yaml:"required_documents" mapstructure:"required_documents"`

	// AutomatedActions names the side effects to run when a client enters this stage.
	AutomatedActions []string `json:"automatedActions" yaml:"automated_actions" mapstructure:"automated_actions"`
}

// Allows reports whether target is listed as an allowed destination.
func (c StageConfig) Allows(target Stage) bool {
	for _, s := range c.AllowedTransitions {
		if s == target {
			return true
		}
	}
	return false
}
