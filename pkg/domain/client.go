package domain

import "time"

// ClientStatus is the administrative status of a client, independent of its Stage.
type ClientStatus string

const (
	ClientActive    ClientStatus = "active"
	ClientPending   ClientStatus = "pending"
	ClientInactive  ClientStatus = "inactive"
	ClientSuspended ClientStatus = "suspended"
	ClientCompleted ClientStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientActive, ClientPending, ClientInactive, ClientSuspended, ClientCompleted:
		return true
	}
	return false
}

// ServiceType names a brokerage service a client is enrolled in.
type ServiceType string

const (
	ServiceStartUpBroker         ServiceType = "start-up-broker"
	ServiceCommunityHabilitation ServiceType = "community-habilitation"
	ServiceSAP                   ServiceType = "sap"
	ServiceBudgeting             ServiceType = "budgeting"
	ServiceCaseManagement        ServiceType = "case-management"
)

// Client is owned by exactly one organization and always sits in one Stage.
// It is never physically deleted; archiving flips IsArchived.
type Client struct {
	ID             string           `json:"id" mapstructure:"id"`
	OrganizationID string           `json:"organizationId" mapstructure:"organizationId"`
	PersonalInfo   PersonalInfo     `json:"personalInfo" mapstructure:"personalInfo"`
	CareManager    CareManager      `json:"careManager" mapstructure:"careManager"`
	Services       []ServiceType    `json:"services" mapstructure:"services"`
	Status         ClientStatus     `json:"status" mapstructure:"status"`
	PipelineStage  Stage            `json:"pipelineStage" mapstructure:"pipelineStage"`
	PipelineID     string           `json:"pipelineId,omitempty" mapstructure:"pipelineId"`
	Case           ClientCase       `json:"case" mapstructure:"case"`
	Documents      []ClientDocument `json:"documents" mapstructure:"documents"`
	Budgets        []Budget         `json:"budgets" mapstructure:"budgets"`

	// Timeline is ordered newest first.
	Timeline []TimelineEvent `json:"timeline" mapstructure:"timeline"`

	CreatedAt  time.Time  `json:"createdAt" mapstructure:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" mapstructure:"updatedAt"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty" mapstructure:"archivedAt"`
	IsArchived bool       `json:"isArchived" mapstructure:"isArchived"`

	// Version is bumped by the store on every successful write.
	// A Put carrying a stale Version fails with ErrConcurrentModification.
	Version int64 `json:"version" mapstructure:"version"`

	// SealedPersonalInfo carries PersonalInfo encrypted at rest.
	// Only storage middleware reads or writes it.
	SealedPersonalInfo string `json:"sealedPersonalInfo,omitempty" mapstructure:"-"`
}

// Clone returns a deep copy so callers can mutate without touching stored data.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	out.Services = append([]ServiceType(nil), c.Services...)
	out.Documents = append([]ClientDocument(nil), c.Documents...)
	out.Budgets = append([]Budget(nil), c.Budgets...)
	out.Timeline = append([]TimelineEvent(nil), c.Timeline...)
	out.Case.Notes = append([]CaseNote(nil), c.Case.Notes...)
	out.Case.Milestones = append([]CaseMilestone(nil), c.Case.Milestones...)
	out.PersonalInfo.Disabilities = append([]string(nil), c.PersonalInfo.Disabilities...)
	out.PersonalInfo.SpecialNeeds = append([]string(nil), c.PersonalInfo.SpecialNeeds...)
	if c.PersonalInfo.EmergencyContact != nil {
		ec := *c.PersonalInfo.EmergencyContact
		out.PersonalInfo.EmergencyContact = &ec
	}
	if c.ArchivedAt != nil {
		t := *c.ArchivedAt
		out.ArchivedAt = &t
	}
	return &out
}

type PersonalInfo struct {
	FirstName        string            `json:"firstName" mapstructure:"firstName"`
	LastName         string            `json:"lastName" mapstructure:"lastName"`
	FullName         string            `json:"fullName" mapstructure:"fullName"`
	Email            string            `json:"email" mapstructure:"email"`
	Phone            string            `json:"phone" mapstructure:"phone"`
	Address          Address           `json:"address" mapstructure:"address"`
	DateOfBirth      time.Time         `json:"dateOfBirth" mapstructure:"dateOfBirth"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty" mapstructure:"emergencyContact"`
	Disabilities     []string          `json:"disabilities,omitempty" mapstructure:"disabilities"`
	SpecialNeeds     []string          `json:"specialNeeds,omitempty" mapstructure:"specialNeeds"`
}

// DisplayName prefers FullName and falls back to first + last.
func (p PersonalInfo) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

type Address struct {
	Street  string `json:"street" mapstructure:"street"`
	City    string `json:"city" mapstructure:"city"`
	State   string `json:"state" mapstructure:"state"`
	ZipCode string `json:"zipCode" mapstructure:"zipCode"`
	Country string `json:"country" mapstructure:"country"`
}

type EmergencyContact struct {
	Name         string `json:"name" mapstructure:"name"`
	Relationship string `json:"relationship" mapstructure:"relationship"`
	Phone        string `json:"phone" mapstructure:"phone"`
	Email        string `json:"email,omitempty" mapstructure:"email"`
}

type CareManager struct {
	ID           string `json:"id" mapstructure:"id"`
	Name         string `json:"name" mapstructure:"name"`
	Email        string `json:"email" mapstructure:"email"`
	Phone        string `json:"phone" mapstructure:"phone"`
	Organization string `json:"organization" mapstructure:"organization"`
	Title        string `json:"title" mapstructure:"title"`
}

type CasePriority string

const (
	PriorityLow    CasePriority = "low"
	PriorityMedium CasePriority = "medium"
	PriorityHigh   CasePriority = "high"
	PriorityUrgent CasePriority = "urgent"
)

type CaseStatus string

const (
	CaseOpen            CaseStatus = "open"
	CaseInProgress      CaseStatus = "in-progress"
	CaseWaitingClient   CaseStatus = "waiting-client"
	CaseWaitingApproval CaseStatus = "waiting-approval"
	CaseCompleted       CaseStatus = "completed"
	CaseOnHold          CaseStatus = "on-hold"
	CaseCancelled       CaseStatus = "cancelled"
)

// ClientCase is the brokerage case attached to a client.
type ClientCase struct {
	ID                   string          `json:"id" mapstructure:"id"`
	ClientID             string          `json:"clientId" mapstructure:"clientId"`
	Title                string          `json:"title" mapstructure:"title"`
	Description          string          `json:"description" mapstructure:"description"`
	Priority             CasePriority    `json:"priority" mapstructure:"priority"`
	Status               CaseStatus      `json:"status" mapstructure:"status"`
	AssignedBroker       string          `json:"assignedBroker" mapstructure:"assignedBroker"`
	StartDate            time.Time       `json:"startDate" mapstructure:"startDate"`
	TargetCompletionDate *time.Time      `json:"targetCompletionDate,omitempty" mapstructure:"targetCompletionDate"`
	CompletedDate        *time.Time      `json:"completedDate,omitempty" mapstructure:"completedDate"`
	Notes                []CaseNote      `json:"notes" mapstructure:"notes"`
	Milestones           []CaseMilestone `json:"milestones" mapstructure:"milestones"`
}

type NoteType string

const (
	NoteGeneral   NoteType = "general"
	NoteMeeting   NoteType = "meeting"
	NotePhoneCall NoteType = "phone-call"
	NoteEmail     NoteType = "email"
	NoteDocument  NoteType = "document"
	NoteMilestone NoteType = "milestone"
)

type CaseNote struct {
	ID        string    `json:"id" mapstructure:"id"`
	Content   string    `json:"content" mapstructure:"content"`
	Author    string    `json:"author" mapstructure:"author"`
	CreatedAt time.Time `json:"createdAt" mapstructure:"createdAt"`
	Type      NoteType  `json:"type" mapstructure:"type"`
}

type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in-progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneOverdue    MilestoneStatus = "overdue"
)

type CaseMilestone struct {
	ID            string          `json:"id" mapstructure:"id"`
	Title         string          `json:"title" mapstructure:"title"`
	Description   string          `json:"description" mapstructure:"description"`
	TargetDate    time.Time       `json:"targetDate" mapstructure:"targetDate"`
	CompletedDate *time.Time      `json:"completedDate,omitempty" mapstructure:"completedDate"`
	Status        MilestoneStatus `json:"status" mapstructure:"status"`
}

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentReceived DocumentStatus = "received"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
	DocumentExpired  DocumentStatus = "expired"
)

type ClientDocument struct {
	ID             string         `json:"id" mapstructure:"id"`
	ClientID       string         `json:"clientId" mapstructure:"clientId"`
	Name           string         `json:"name" mapstructure:"name"`
	Type           DocumentType   `json:"type" mapstructure:"type"`
	URL            string         `json:"url" mapstructure:"url"`
	UploadDate     time.Time      `json:"uploadDate" mapstructure:"uploadDate"`
	UploadedBy     string         `json:"uploadedBy" mapstructure:"uploadedBy"`
	Required       bool           `json:"required" mapstructure:"required"`
	Received       bool           `json:"received" mapstructure:"received"`
	ExpirationDate *time.Time     `json:"expirationDate,omitempty" mapstructure:"expirationDate"`
	Status         DocumentStatus `json:"status" mapstructure:"status"`
}

type BudgetType string

const (
	BudgetStartUp BudgetType = "start-up"
	BudgetInitial BudgetType = "initial"
	BudgetCNBA    BudgetType = "cnba"
)

type BudgetStatus string

const (
	BudgetDraft             BudgetStatus = "draft"
	BudgetSubmitted         BudgetStatus = "submitted"
	BudgetApproved          BudgetStatus = "approved"
	BudgetRevisionRequested BudgetStatus = "revision-requested"
	BudgetRejected          BudgetStatus = "rejected"
)

type Budget struct {
	ID                 string       `json:"id" mapstructure:"id"`
	ClientID           string       `json:"clientId" mapstructure:"clientId"`
	Type               BudgetType   `json:"type" mapstructure:"type"`
	Amount             float64      `json:"amount" mapstructure:"amount"`
	Status             BudgetStatus `json:"status" mapstructure:"status"`
	SubmissionDate     time.Time    `json:"submissionDate" mapstructure:"submissionDate"`
	ApprovalDate       *time.Time   `json:"approvalDate,omitempty" mapstructure:"approvalDate"`
	FiscalYear         string       `json:"fiscalYear" mapstructure:"fiscalYear"`
	FiscalIntermediary string       `json:"fiscalIntermediary" mapstructure:"fiscalIntermediary"`
	Notes              string       `json:"notes,omitempty" mapstructure:"notes"`
}
