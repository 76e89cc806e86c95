package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

func TestMarkServiceUpsertReplacesScores(t *testing.T) {
	env := setupServiceEnv(t)
	svc := NewMarkService(env.marks, env.authorizer, env.activity, env.validate, testLogger())
	ctx := context.Background()
	owner := env.seedFaculty(t, "owner@adithyatech.com")
	class := env.seedClass(t, owner)

	first, err := svc.Upsert(ctx, owner, dto.MarkCreateRequest{
		ClassID: class.ID,
		Exam:    "IA1",
		Marks: []dto.MarkEntry{
			{RegisterNumber: "21CS001", Mark: 40},
			{RegisterNumber: "21CS002", Mark: 35.5},
			{RegisterNumber: " 21CS001 ", Mark: 44},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, first.Count)
	require.Equal(t, 44.0, first.Marks[0].Mark)

	second, err := svc.Upsert(ctx, owner, dto.MarkCreateRequest{
		ClassID: class.ID,
		Marks:   []dto.MarkEntry{{RegisterNumber: "21CS001", Mark: 48}},
	})
	require.NoError(t, err)
	require.Equal(t, first.Marks[0].ID, second.Marks[0].ID)
	require.Equal(t, "IA1", second.Marks[0].Exam)

	listed, err := svc.List(ctx, owner, class.ID)
	require.NoError(t, err)
	require.Len(t, listed.Marks, 2)
	require.Equal(t, 48.0, listed.Marks[0].Mark)
	require.Equal(t, []string{ActionMarkUpsert, ActionMarkUpsert}, env.activity.actions())
}

func TestMarkServiceValidatesRange(t *testing.T) {
	env := setupServiceEnv(t)
	svc := NewMarkService(env.marks, env.authorizer, env.activity, env.validate, testLogger())
	owner := env.seedFaculty(t, "owner@adithyatech.com")
	class := env.seedClass(t, owner)

	for _, value := range []float64{0, -3, 100.5} {
		_, err := svc.Upsert(context.Background(), owner, dto.MarkCreateRequest{
			ClassID: class.ID,
			Marks:   []dto.MarkEntry{{RegisterNumber: "21CS001", Mark: value}},
		})
		require.Error(t, err, "mark %v", value)
		require.Contains(t, utils.ValidationDetails(err), "mark")
	}

	_, err := svc.Upsert(context.Background(), owner, dto.MarkCreateRequest{
		ClassID: class.ID,
		Exam:    "Final",
		Marks:   []dto.MarkEntry{{RegisterNumber: "21CS001", Mark: 50}},
	})
	require.Contains(t, utils.ValidationDetails(err), "exam")
}

func TestMarkServiceOwnerOnly(t *testing.T) {
	env := setupServiceEnv(t)
	svc := NewMarkService(env.marks, env.authorizer, env.activity, env.validate, testLogger())
	ctx := context.Background()
	owner := env.seedFaculty(t, "owner@adithyatech.com")
	other := env.seedFaculty(t, "other@adithyatech.com")
	incharge := env.seedStudent(t, "21CS001", true)
	class := env.seedClass(t, owner, incharge)

	created, err := svc.Upsert(ctx, owner, dto.MarkCreateRequest{
		ClassID: class.ID,
		Exam:    "IA2",
		Marks:   []dto.MarkEntry{{RegisterNumber: "21CS001", Mark: 30}},
	})
	require.NoError(t, err)
	markID := created.Marks[0].ID

	_, err = svc.List(ctx, studentPrincipal(incharge), class.ID)
	require.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.Update(ctx, other, dto.MarkUpdateRequest{MarkID: markID, Mark: 99})
	require.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.Update(ctx, studentPrincipal(incharge), dto.MarkUpdateRequest{MarkID: markID, Mark: 99})
	require.ErrorIs(t, err, auth.ErrForbidden)

	updated, err := svc.Update(ctx, owner, dto.MarkUpdateRequest{MarkID: markID, Mark: 33})
	require.NoError(t, err)
	require.Equal(t, 33.0, updated.Mark)

	_, err = svc.Delete(ctx, other, markID)
	require.ErrorIs(t, err, auth.ErrForbidden)

	deleted, err := svc.Delete(ctx, owner, markID)
	require.NoError(t, err)
	require.Equal(t, "IA2", deleted.Exam)

	_, err = svc.Delete(ctx, owner, markID)
	require.ErrorIs(t, err, ErrMarkNotFound)
}
