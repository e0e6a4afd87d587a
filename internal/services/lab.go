package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/dberr"
	"github.com/yungbote/javuy-backend/internal/data/repos"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

var errLabNotFound = apierr.NotFound("lab_not_found", "Lab not found")

type LabInput struct {
	ID          *int             `json:"id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	PDFURL      *string          `json:"pdfUrl"`
	Files       *[]types.LabFile `json:"files"`
}

type LabService interface {
	ListLabs(ctx context.Context) ([]*types.Lab, error)
	GetLab(ctx context.Context, id int) (*types.Lab, error)
	CreateLab(ctx context.Context, in LabInput) (*types.Lab, error)
	UpdateLab(ctx context.Context, id int, in LabInput) (*types.Lab, error)
	DeleteLab(ctx context.Context, id int) error
}

type labService struct {
	db      *gorm.DB
	log     *logger.Logger
	labRepo repos.LabRepo
}

func NewLabService(db *gorm.DB, log *logger.Logger, labRepo repos.LabRepo) LabService {
	return &labService{
		db:      db,
		log:     log.With("service", "LabService"),
		labRepo: labRepo,
	}
}

func (ls *labService) ListLabs(ctx context.Context) ([]*types.Lab, error) {
	labs, err := ls.labRepo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list labs: %w", err)
	}
	if labs == nil {
		labs = []*types.Lab{}
	}
	return labs, nil
}

func (ls *labService) GetLab(ctx context.Context, id int) (*types.Lab, error) {
	if id <= 0 {
		return nil, apierr.BadRequest("invalid_lab_id", "Lab id must be a positive integer")
	}
	lab, err := ls.labRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load lab: %w", err)
	}
	if lab == nil {
		return nil, errLabNotFound
	}
	return lab, nil
}

func (ls *labService) CreateLab(ctx context.Context, in LabInput) (*types.Lab, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" || in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		return nil, apierr.BadRequest("missing_fields", "Title and description are required")
	}
	if in.ID != nil && *in.ID <= 0 {
		return nil, apierr.BadRequest("invalid_lab_id", "Lab id must be a positive integer")
	}
	var files []types.LabFile
	if in.Files != nil {
		files = *in.Files
	}
	if err := types.ValidateLabFiles(files); err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_files", err)
	}

	lab := &types.Lab{
		Title:       strings.TrimSpace(*in.Title),
		Description: *in.Description,
		Files:       datatypes.JSONSlice[types.LabFile](files),
	}
	if in.PDFURL != nil {
		lab.PDFURL = strings.TrimSpace(*in.PDFURL)
	}

	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if in.ID != nil {
			lab.ID = *in.ID
		} else {
			max, err := ls.labRepo.MaxID(dbc)
			if err != nil {
				return fmt.Errorf("next lab id: %w", err)
			}
			lab.ID = max + 1
		}
		_, err := ls.labRepo.Create(dbc, []*types.Lab{lab})
		return err
	})
	if err != nil {
		if errors.Is(err, dberr.ErrConflict) {
			return nil, apierr.Conflict("lab_exists", fmt.Sprintf("Lab %d already exists", lab.ID))
		}
		return nil, err
	}
	ls.log.Info("Lab created", "lab_id", lab.ID)
	return lab, nil
}

func (ls *labService) UpdateLab(ctx context.Context, id int, in LabInput) (*types.Lab, error) {
	if id <= 0 {
		return nil, apierr.BadRequest("invalid_lab_id", "Lab id must be a positive integer")
	}
	if in.ID != nil && *in.ID != id {
		return nil, apierr.BadRequest("immutable_id", "Lab id cannot be changed")
	}
	fields := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apierr.BadRequest("invalid_title", "title must not be empty")
		}
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return nil, apierr.BadRequest("invalid_description", "description must not be empty")
		}
		fields["description"] = *in.Description
	}
	if in.PDFURL != nil {
		fields["pdf_url"] = strings.TrimSpace(*in.PDFURL)
	}
	if in.Files != nil {
		if err := types.ValidateLabFiles(*in.Files); err != nil {
			return nil, apierr.New(http.StatusBadRequest, "invalid_files", err)
		}
		fields["files"] = datatypes.JSONSlice[types.LabFile](*in.Files)
	}

	var updated *types.Lab
	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := ls.labRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load lab: %w", err)
		}
		if existing == nil {
			return errLabNotFound
		}
		if _, err := ls.labRepo.Update(dbc, id, fields); err != nil {
			return fmt.Errorf("update lab: %w", err)
		}
		updated, err = ls.labRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (ls *labService) DeleteLab(ctx context.Context, id int) error {
	if id <= 0 {
		return apierr.BadRequest("invalid_lab_id", "Lab id must be a positive integer")
	}
	n, err := ls.labRepo.FullDeleteByIDs(dbctx.Context{Ctx: ctx}, []int{id})
	if err != nil {
		return fmt.Errorf("delete lab: %w", err)
	}
	if n == 0 {
		return errLabNotFound
	}
	return nil
}
