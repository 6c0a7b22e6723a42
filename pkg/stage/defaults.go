package stage

import "github.com/aretw0/brokerdesk/pkg/domain"

// Built-in pipeline ids.
const (
	DisabilityServicesID = "disability-services"
	SimpleWorkflowID     = "simple-workflow"
)

// DefaultStages returns the standard disability services brokerage stages.
func DefaultStages() []domain.StageConfig {
	return []domain.StageConfig{
		{
			ID:                 domain.StageLeadIntake,
			Title:              "Lead Intake",
			Description:        "Initial contact and form collection",
			Color:              "#3B82F6",
			BgColor:            "#EFF6FF",
			Order:              1,
			AllowedTransitions: []domain.Stage{domain.StageClientOnboarding},
			AutomatedActions:   []string{"send-intake-form", "create-google-sheet-entry"},
		},
		{
			ID:                 domain.StageClientOnboarding,
			Title:              "Client Onboarding",
			Description:        "Broker agreement and documentation",
			Color:              "#10B981",
			BgColor:            "#ECFDF5",
			Order:              2,
			AllowedTransitions: []domain.Stage{domain.StageBudgetProcessing, domain.StageDocumentManagement},
			RequiredDocuments:  []domain.DocumentType{domain.DocBrokerAgreement},
			AutomatedActions:   []string{"send-broker-agreement", "schedule-intake-meeting"},
		},
		{
			ID:                 domain.StageBudgetProcessing,
			Title:              "Budget Processing",
			Description:        "Start-up, Initial & CNBA budgets",
			Color:              "#F59E0B",
			BgColor:            "#FFFBEB",
			Order:              3,
			AllowedTransitions: []domain.Stage{domain.StageDocumentManagement, domain.StageBillingAutomation},
			RequiredDocuments:  []domain.DocumentType{domain.DocLifePlan, domain.DocLOCForm, domain.DocDDP2Profile},
			AutomatedActions:   []string{"create-budget", "submit-to-fi"},
		},
		{
			ID:                 domain.StageDocumentManagement,
			Title:              "Document Management",
			Description:        "Life plans, LOC forms & evaluations",
			Color:              "#8B5CF6",
			BgColor:            "#F5F3FF",
			Order:              4,
			AllowedTransitions: []domain.Stage{domain.StageBillingAutomation, domain.StageBudgetProcessing},
			RequiredDocuments:  []domain.DocumentType{domain.DocLifePlan, domain.DocSAP, domain.DocSafeguards},
			AutomatedActions:   []string{"request-documents", "validate-documents"},
		},
		{
			ID:                 domain.StageBillingAutomation,
			Title:              "Billing Automation",
			Description:        "Invoice generation & submission",
			Color:              "#EF4444",
			BgColor:            "#FEF2F2",
			Order:              5,
			AllowedTransitions: []domain.Stage{domain.StageCompleted},
			AutomatedActions:   []string{"generate-invoices", "submit-billing"},
		},
		{
			ID:               domain.StageCompleted,
			Title:            "Completed",
			Description:      "Process completed successfully",
			Color:            "#6B7280",
			BgColor:          "#F9FAFB",
			Order:            6,
			AutomatedActions: []string{"archive-case", "send-completion-notice"},
		},
	}
}

// Default returns the graph of DefaultStages, entering at lead-intake.
func Default() *Graph {
	return MustNew(domain.StageLeadIntake, DefaultStages())
}

// DefaultPipelines returns the built-in pipelines. The first one is the default.
func DefaultPipelines() []domain.CustomPipeline {
	return []domain.CustomPipeline{
		{
			ID:          DisabilityServicesID,
			Name:        "Disability Services",
			Description: "Standard disability services brokerage workflow",
			IsDefault:   true,
			EntryStage:  domain.StageLeadIntake,
			Stages:      DefaultStages(),
		},
		{
			ID:          SimpleWorkflowID,
			Name:        "Simple Workflow",
			Description: "Simplified 3-stage workflow",
			EntryStage:  "new-lead",
			Stages: []domain.StageConfig{
				{
					ID:                 "new-lead",
					Title:              "New Lead",
					Description:        "New potential client",
					Color:              "#3B82F6",
					Order:              1,
					AllowedTransitions: []domain.Stage{"in-progress"},
				},
				{
					ID:                 "in-progress",
					Title:              "In Progress",
					Description:        "Active client processing",
					Color:              "#F59E0B",
					Order:              2,
					AllowedTransitions: []domain.Stage{domain.StageCompleted},
				},
				{
					ID:          domain.StageCompleted,
					Title:       "Completed",
					Description: "Process finished",
					Color:       "#10B981",
					Order:       3,
				},
			},
		},
	}
}
