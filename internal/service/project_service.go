package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

type ProjectService struct {
	store *repository.Store
}

func NewProjectService(store *repository.Store) *ProjectService {
	return &ProjectService{store: store}
}

type CreateProjectInput struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Description *string             `json:"description"`
	Status      model.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING IN_PROGRESS ON_HOLD COMPLETED CANCELLED"`
	ClientName  *string             `json:"client_name" validate:"omitempty,max=200"`
	ClientEmail *string             `json:"client_email" validate:"omitempty,email,max=200"`
	ClientPhone *string             `json:"client_phone" validate:"omitempty,max=50"`
	Location    *string             `json:"location" validate:"omitempty,max=300"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
}

type UpdateProjectInput struct {
	Name        *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string              `json:"description"`
	Status      *model.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING IN_PROGRESS ON_HOLD COMPLETED CANCELLED"`
	ClientName  *string              `json:"client_name" validate:"omitempty,max=200"`
	ClientEmail *string              `json:"client_email" validate:"omitempty,max=200"`
	ClientPhone *string              `json:"client_phone" validate:"omitempty,max=50"`
	Location    *string              `json:"location" validate:"omitempty,max=300"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
}

type ProjectFilter struct {
	Status model.ProjectStatus
}

func (s *ProjectService) Create(ctx context.Context, p model.Principal, input CreateProjectInput) (*model.Project, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := checkDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = model.ProjectStatusPlanning
	}

	orgID, err := activeOrganization(p)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(p, orgID); err != nil {
		return nil, err
	}
	if _, err := requireOrganizationType(ctx, s.store, orgID, model.OrganizationTypeContractor); err != nil {
		return nil, err
	}

	project := &model.Project{
		OrganizationID: orgID,
		CreatedByID:    p.UserID,
		Name:           input.Name,
		Description:    optionalText(input.Description),
		Status:         input.Status,
		ClientName:     optionalText(input.ClientName),
		ClientEmail:    optionalText(input.ClientEmail),
		ClientPhone:    optionalText(input.ClientPhone),
		Location:       optionalText(input.Location),
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
	}
	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Project, error) {
	return loadVisibleProject(ctx, s.store, p, id)
}

// List returns the active organization's projects. VIEWERs only see the
// projects shared with them.
func (s *ProjectService) List(ctx context.Context, p model.Principal, filter ProjectFilter) ([]model.Project, error) {
	orgID, err := activeOrganization(p)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}

	repoFilter := repository.ProjectFilter{OrganizationID: orgID, Status: filter.Status}
	if !p.CanEdit(orgID) {
		repoFilter.ViewerID = p.UserID
	}
	return s.store.Projects.List(ctx, repoFilter)
}

func (s *ProjectService) Update(ctx context.Context, p model.Principal, id uuid.UUID, input UpdateProjectInput) (*model.Project, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.ClientEmail != nil && strings.TrimSpace(*input.ClientEmail) != "" {
		if err := validate.Var(strings.TrimSpace(*input.ClientEmail), "email"); err != nil {
			return nil, fmt.Errorf("%w: client_email must be a valid email", ErrInvalidInput)
		}
	}

	var updated *model.Project
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		project, err := tx.Projects.Get(ctx, id)
		if err != nil {
			return notFound(err, "project")
		}
		if err := requireEditor(p, project.OrganizationID); err != nil {
			return err
		}

		start, end := project.StartDate, project.EndDate
		if input.StartDate != nil {
			start = input.StartDate
		}
		if input.EndDate != nil {
			end = input.EndDate
		}
		if err := checkDateRange(start, end); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
			}
			fields["name"] = name
		}
		if input.Status != nil {
			fields["status"] = *input.Status
		}
		optional := map[string]*string{
			"description":  input.Description,
			"client_name":  input.ClientName,
			"client_email": input.ClientEmail,
			"client_phone": input.ClientPhone,
			"location":     input.Location,
		}
		for column, value := range optional {
			if value != nil {
				fields[column] = optionalText(value)
			}
		}
		if input.StartDate != nil {
			fields["start_date"] = input.StartDate
		}
		if input.EndDate != nil {
			fields["end_date"] = input.EndDate
		}

		if err := tx.Projects.Update(ctx, id, fields); err != nil {
			return err
		}
		updated, err = tx.Projects.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the project with its viewer grants and budget links.
func (s *ProjectService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		project, err := tx.Projects.Get(ctx, id)
		if err != nil {
			return notFound(err, "project")
		}
		if err := requireEditor(p, project.OrganizationID); err != nil {
			return err
		}
		return tx.Projects.Delete(ctx, id)
	})
}

func (s *ProjectService) ListViewers(ctx context.Context, p model.Principal, projectID uuid.UUID) ([]model.ProjectViewer, error) {
	project, err := s.store.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if err := requireEditor(p, project.OrganizationID); err != nil {
		return nil, err
	}
	return s.store.Projects.ListViewers(ctx, projectID)
}

// AddViewer shares the project with a VIEWER member of its organization.
func (s *ProjectService) AddViewer(ctx context.Context, p model.Principal, projectID, userID uuid.UUID) (*model.ProjectViewer, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	var viewer *model.ProjectViewer
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		project, err := tx.Projects.Get(ctx, projectID)
		if err != nil {
			return notFound(err, "project")
		}
		if err := requireAdmin(p, project.OrganizationID); err != nil {
			return err
		}

		member, err := tx.Members.Get(ctx, project.OrganizationID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user is not a member of the organization", ErrInvalidInput)
		}
		if err != nil {
			return err
		}
		if member.Role != model.RoleViewer {
			return fmt.Errorf("%w: only VIEWER members can be granted project access", ErrInvalidInput)
		}

		exists, err := tx.Projects.HasViewer(ctx, projectID, userID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: user already has access to the project", ErrConflict)
		}

		viewer = &model.ProjectViewer{ProjectID: projectID, UserID: userID}
		return tx.Projects.AddViewer(ctx, viewer)
	})
	if err != nil {
		return nil, err
	}
	return viewer, nil
}

func (s *ProjectService) RemoveViewer(ctx context.Context, p model.Principal, projectID, userID uuid.UUID) error {
	project, err := s.store.Projects.Get(ctx, projectID)
	if err != nil {
		return notFound(err, "project")
	}
	if err := requireAdmin(p, project.OrganizationID); err != nil {
		return err
	}
	removed, err := s.store.Projects.RemoveViewer(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: viewer", ErrNotFound)
	}
	return nil
}

// ListBudgets returns every budget linked to the project.
func (s *ProjectService) ListBudgets(ctx context.Context, p model.Principal, projectID uuid.UUID) ([]model.Budget, error) {
	if _, err := loadVisibleProject(ctx, s.store, p, projectID); err != nil {
		return nil, err
	}
	return s.store.Budgets.ListByProject(ctx, projectID)
}

// loadVisibleProject loads a project the caller may read: any ADMIN or
// MEMBER of its organization, or a VIEWER it was shared with.
func loadVisibleProject(ctx context.Context, store *repository.Store, p model.Principal, id uuid.UUID) (*model.Project, error) {
	project, err := store.Projects.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if err := requireMember(p, project.OrganizationID); err != nil {
		return nil, err
	}
	if p.CanEdit(project.OrganizationID) {
		return project, nil
	}
	shared, err := store.Projects.HasViewer(ctx, id, p.UserID)
	if err != nil {
		return nil, err
	}
	if !shared {
		return nil, fmt.Errorf("%w: project is not shared with you", ErrPermissionDenied)
	}
	return project, nil
}

func checkDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrInvalidInput)
	}
	return nil
}
