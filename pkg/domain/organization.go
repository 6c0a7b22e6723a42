package domain

import "time"

// Role is a user's position inside an organization.
type Role string

const (
	RoleBusinessOwner Role = "business-owner"
	RoleEmployee      Role = "employee"
	RoleClient        Role = "client"
)

// Permission gates a feature area.
type Permission string

const (
	PermDashboardView      Permission = "dashboard-view"
	PermClientManagement   Permission = "client-management"
	PermPipelineManagement Permission = "pipeline-management"
	PermBudgetManagement   Permission = "budget-management"
	PermDocumentAccess     Permission = "document-access"
	PermBillingAccess      Permission = "billing-access"
	PermEmployeeManagement Permission = "employee-management"
	PermSettingsAccess     Permission = "settings-access"
)

// RolePermissions returns a fresh copy of the permissions granted to role.
// Unknown roles get none.
func RolePermissions(role Role) []Permission {
	switch role {
	case RoleBusinessOwner:
		return []Permission{
			PermDashboardView,
			PermClientManagement,
			PermPipelineManagement,
			PermBudgetManagement,
			PermDocumentAccess,
			PermBillingAccess,
			PermEmployeeManagement,
			PermSettingsAccess,
		}
	case RoleEmployee:
		return []Permission{
			PermDashboardView,
			PermClientManagement,
			PermPipelineManagement,
			PermDocumentAccess,
		}
	case RoleClient:
		return []Permission{
			PermDashboardView,
			PermDocumentAccess,
		}
	}
	return nil
}

type OrganizationType string

const (
	OrgBrokerage    OrganizationType = "brokerage"
	OrgCareProvider OrganizationType = "care-provider"
	OrgIndividual   OrganizationType = "individual"
)

// Organization is the tenant boundary. Every client and employee belongs to one.
type Organization struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Type      OrganizationType `json:"type"`
	OwnerID   string           `json:"ownerId"`
	Employees []string         `json:"employees"`
	Clients   []string         `json:"clients"`
	Settings  Settings         `json:"settings"`
	JoinCode  string           `json:"joinCode,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type Settings struct {
	AllowClientSelfRegistration bool         `json:"allowClientSelfRegistration"`
	RequireEmployeeApproval     bool         `json:"requireEmployeeApproval"`
	DefaultEmployeePermissions  []Permission `json:"defaultEmployeePermissions"`
}

// SettingsPatch carries optional settings overrides; nil fields are left untouched.
type SettingsPatch struct {
	AllowClientSelfRegistration *bool        `json:"allowClientSelfRegistration,omitempty"`
	RequireEmployeeApproval     *bool        `json:"requireEmployeeApproval,omitempty"`
	DefaultEmployeePermissions  []Permission `json:"defaultEmployeePermissions,omitempty"`
}

// HasEmployee reports whether userID is listed as an employee.
func (o *Organization) HasEmployee(userID string) bool {
	for _, id := range o.Employees {
		if id == userID {
			return true
		}
	}
	return false
}

type UserProfile struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	DisplayName    string       `json:"displayName"`
	Role           Role         `json:"role"`
	OrganizationID string       `json:"organizationId,omitempty"`
	Permissions    []Permission `json:"permissions"`
	IsActive       bool         `json:"isActive"`
	InvitedBy      string       `json:"invitedBy,omitempty"`
	JoinedAt       time.Time    `json:"joinedAt"`
	LastLoginAt    time.Time    `json:"lastLoginAt"`
	Profile        Profile      `json:"profile"`
}

type Profile struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
}

// HasPermission reports whether p is granted to the user.
func (u *UserProfile) HasPermission(p Permission) bool {
	for _, got := range u.Permissions {
		if got == p {
			return true
		}
	}
	return false
}

// InviteLink grants a role in an organization to whoever redeems it before ExpiresAt.
type InviteLink struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organizationId"`
	Role           Role         `json:"role"`
	Permissions    []Permission `json:"permissions"`
	InvitedBy      string       `json:"invitedBy"`
	Email          string       `json:"email,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	ExpiresAt      time.Time    `json:"expiresAt"`
	UsedAt         *time.Time   `json:"usedAt,omitempty"`
	UsedBy         string       `json:"usedBy,omitempty"`
	IsActive       bool         `json:"isActive"`
}

// Valid reports whether the invite can still be redeemed at now.
func (i *InviteLink) Valid(now time.Time) bool {
	return i.IsActive && now.Before(i.ExpiresAt)
}
