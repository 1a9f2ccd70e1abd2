package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
)

func TestGetMe(t *testing.T) {
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := NewUserService(log, userrepo.NewUserRepo(db, log))
	tutor := testutil.SeedUser(t, ctx, db, types.RoleTutor)

	as := func(id uuid.UUID) context.Context {
		return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: id, Role: string(types.RoleTutor)})
	}

	me, err := svc.GetMe(as(tutor.ID))
	require.NoError(t, err)
	require.Equal(t, tutor.Email, me.Email)

	_, err = svc.GetMe(ctx)
	require.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), err)

	_, err = svc.GetMe(as(uuid.New()))
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), err)
}
