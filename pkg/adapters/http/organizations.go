package http

import (
	"net/http"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// CreateOrganizationRequest is the body of POST /orgs.
type CreateOrganizationRequest struct {
	Name    string                  `json:"name"`
	Type    domain.OrganizationType `json:"type"`
	OwnerID string                  `json:"ownerId"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	DisplayName    string      `json:"displayName"`
	Role           domain.Role `json:"role"`
	OrganizationID string      `json:"organizationId"`
}

// AddEmployeeRequest is the body of POST /orgs/{orgID}/employees.
type AddEmployeeRequest struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

// PermissionsRequest is the body of PUT .../permissions.
type PermissionsRequest struct {
	Permissions []domain.Permission `json:"permissions"`
}

// CreateInviteRequest is the body of POST /orgs/{orgID}/invites.
// Nil permissions grant the role's defaults.
type CreateInviteRequest struct {
	Role        domain.Role         `json:"role"`
	InvitedBy   string              `json:"invitedBy"`
	Email       string              `json:"email"`
	Permissions []domain.Permission `json:"permissions"`
}

// UseInviteRequest is the body of POST /invites/{inviteID}/use.
type UseInviteRequest struct {
	UserID string `json:"userId"`
}

// JoinRequest is the body of POST /join.
type JoinRequest struct {
	Code   string      `json:"code"`
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

func (s *Server) organizationRoutes(r chi.Router) {
	r.Post("/users", s.CreateUser)
	r.Get("/users/{userID}", s.GetUser)
	r.Post("/orgs", s.CreateOrganization)
	r.Get("/invites/{inviteID}", s.GetInvite)
	r.Post("/invites/{inviteID}/use", s.UseInvite)
	r.Post("/join", s.Join)
}

// orgScopedRoutes are registered under /orgs/{orgID}.
func (s *Server) orgScopedRoutes(r chi.Router) {
	r.Get("/", s.GetOrganization)
	r.Patch("/settings", s.UpdateSettings)
	r.Get("/employees", s.ListEmployees)
	r.Post("/employees", s.AddEmployee)
	r.Delete("/employees/{userID}", s.RemoveEmployee)
	r.Put("/employees/{userID}/permissions", s.UpdatePermissions)
	r.Get("/members", s.ListMembers)
	r.Post("/invites", s.CreateInvite)
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in CreateUserRequest
	if !s.decode(w, r, &in) {
		return
	}
	u, err := s.orgs.CreateUserProfile(r.Context(), in.ID, in.Email, in.DisplayName, in.Role, in.OrganizationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.orgs.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var in CreateOrganizationRequest
	if !s.decode(w, r, &in) {
		return
	}
	if in.Type == "" {
		in.Type = domain.OrgBrokerage
	}
	org, err := s.orgs.CreateOrganization(r.Context(), in.Name, in.Type, in.OwnerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, org)
}

func (s *Server) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := s.orgs.GetOrganization(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, org)
}

func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if !s.decode(w, r, &patch) {
		return
	}
	org, err := s.orgs.UpdateSettings(r.Context(), chi.URLParam(r, "orgID"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, org)
}

func (s *Server) ListEmployees(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if _, err := s.orgs.GetOrganization(r.Context(), orgID); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.orgs.Employees(r.Context(), orgID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if _, err := s.orgs.GetOrganization(r.Context(), orgID); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.orgs.Members(r.Context(), orgID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) AddEmployee(w http.ResponseWriter, r *http.Request) {
	var in AddEmployeeRequest
	if !s.decode(w, r, &in) {
		return
	}
	if in.Role == "" {
		in.Role = domain.RoleEmployee
	}
	orgID := chi.URLParam(r, "orgID")
	if err := s.orgs.AddUserToOrganization(r.Context(), in.UserID, orgID, in.Role); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.orgs.GetUser(r.Context(), in.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	if err := s.orgs.RemoveUserFromOrganization(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "orgID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var in PermissionsRequest
	if !s.decode(w, r, &in) {
		return
	}
	userID := chi.URLParam(r, "userID")
	if !s.orgs.ValidateUserAccess(r.Context(), userID, chi.URLParam(r, "orgID")) {
		s.writeError(w, r, domain.ErrUserNotFound)
		return
	}
	if err := s.orgs.UpdatePermissions(r.Context(), userID, in.Permissions); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.orgs.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var in CreateInviteRequest
	if !s.decode(w, r, &in) {
		return
	}
	if in.Role == "" {
		in.Role = domain.RoleEmployee
	}
	inv, err := s.orgs.CreateInvite(r.Context(), chi.URLParam(r, "orgID"), in.Role, in.InvitedBy, in.Email, in.Permissions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) GetInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := s.orgs.GetInvite(r.Context(), chi.URLParam(r, "inviteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) UseInvite(w http.ResponseWriter, r *http.Request) {
	var in UseInviteRequest
	if !s.decode(w, r, &in) {
		return
	}
	if err := s.orgs.UseInvite(r.Context(), chi.URLParam(r, "inviteID"), in.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.orgs.GetUser(r.Context(), in.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) Join(w http.ResponseWriter, r *http.Request) {
	var in JoinRequest
	if !s.decode(w, r, &in) {
		return
	}
	if in.Role == "" {
		in.Role = domain.RoleClient
	}
	org, err := s.orgs.JoinByCode(r.Context(), in.Code, in.UserID, in.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, org)
}
