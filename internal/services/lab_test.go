package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/yungbote/javuy-backend/internal/domain"
)

func TestCreateLabAssignsNextID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.labSvc.CreateLab(ctx, LabInput{Title: strPtr("Loops"), Description: strPtr("# Loops")})
	require.NoError(t, err)
	require.Equal(t, 1, first.ID)
	require.Empty(t, first.FileList())

	explicit, err := env.labSvc.CreateLab(ctx, LabInput{ID: intPtr(7), Title: strPtr("Arrays"), Description: strPtr("d")})
	require.NoError(t, err)
	require.Equal(t, 7, explicit.ID)

	next, err := env.labSvc.CreateLab(ctx, LabInput{Title: strPtr("Maps"), Description: strPtr("d"),
		Files: &[]types.LabFile{{Name: "Main.java", Content: ""}, {Name: "Helper.java", Content: "class Helper {}", ReadOnly: true}}})
	require.NoError(t, err)
	require.Equal(t, 8, next.ID)
	require.Len(t, next.FileList(), 2)

	_, err = env.labSvc.CreateLab(ctx, LabInput{ID: intPtr(7), Title: strPtr("Again"), Description: strPtr("d")})
	requireAPIError(t, err, http.StatusConflict, "lab_exists")

	labs, err := env.labSvc.ListLabs(ctx)
	require.NoError(t, err)
	require.Len(t, labs, 3)
	require.Equal(t, []int{1, 7, 8}, []int{labs[0].ID, labs[1].ID, labs[2].ID})
}

func TestCreateLabValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.labSvc.CreateLab(ctx, LabInput{Title: strPtr("no description")})
	requireAPIError(t, err, http.StatusBadRequest, "missing_fields")
	_, err = env.labSvc.CreateLab(ctx, LabInput{ID: intPtr(-1), Title: strPtr("t"), Description: strPtr("d")})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_lab_id")
	_, err = env.labSvc.CreateLab(ctx, LabInput{Title: strPtr("t"), Description: strPtr("d"),
		Files: &[]types.LabFile{{Name: "A.java"}, {Name: "A.java"}}})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_files")
	_, err = env.labSvc.CreateLab(ctx, LabInput{Title: strPtr("t"), Description: strPtr("d"),
		Files: &[]types.LabFile{{Name: " ", Content: "x"}}})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_files")
}

func TestUpdateAndDeleteLab(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lab, err := env.labSvc.CreateLab(ctx, LabInput{Title: strPtr("Old"), Description: strPtr("d"), PDFURL: strPtr("/uploads/labs/a.pdf")})
	require.NoError(t, err)

	updated, err := env.labSvc.UpdateLab(ctx, lab.ID, LabInput{Title: strPtr("New"),
		Files: &[]types.LabFile{{Name: "Main.java", Content: "class Main {}"}}})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, "d", updated.Description)
	require.Equal(t, "/uploads/labs/a.pdf", updated.PDFURL)
	require.Equal(t, "Main.java", updated.FileList()[0].Name)

	_, err = env.labSvc.UpdateLab(ctx, lab.ID, LabInput{ID: intPtr(lab.ID + 1)})
	requireAPIError(t, err, http.StatusBadRequest, "immutable_id")
	_, err = env.labSvc.UpdateLab(ctx, 999, LabInput{Title: strPtr("x")})
	requireAPIError(t, err, http.StatusNotFound, "lab_not_found")

	require.NoError(t, env.labSvc.DeleteLab(ctx, lab.ID))
	_, err = env.labSvc.GetLab(ctx, lab.ID)
	requireAPIError(t, err, http.StatusNotFound, "lab_not_found")
	requireAPIError(t, env.labSvc.DeleteLab(ctx, lab.ID), http.StatusNotFound, "lab_not_found")
	_, err = env.labSvc.GetLab(ctx, 0)
	requireAPIError(t, err, http.StatusBadRequest, "invalid_lab_id")
}
