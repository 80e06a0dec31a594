package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User, profile *model.Profile) error {
	user.ID = uuid.New()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User, profile *model.Profile) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Search(ctx context.Context, filter dto.UserFilter, excludeID uuid.UUID) ([]*model.User, int64, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, user := range r.users {
		if user.IsActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountActive(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

func newAuthFixture() (AuthService, *fakeUserRepo, *fakeActivityRepo) {
	users := newFakeUserRepo()
	activity := &fakeActivityRepo{}
	svc := NewAuthService(users, activity, "test-secret", 60)
	return svc, users, activity
}

func registerInput(username, email string) dto.RegisterRequest {
	return dto.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, activity := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerInput("alice", "alice@example.com"), RequestMeta{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.User.ID)
	assert.True(t, resp.User.IsActive)

	// The token round-trips to the user's ID.
	parsed, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, parsed)

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	require.Len(t, activity.activities, 2)
	assert.Equal(t, model.ActivityRegister, activity.activities[0].Type)
	assert.Equal(t, model.ActivityLogin, activity.activities[1].Type)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), registerInput("alice", "alice@example.com"), RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerInput("alice2", "alice@example.com"), RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	_, err = svc.Register(context.Background(), registerInput("alice", "other@example.com"), RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestLoginFailures(t *testing.T) {
	svc, users, _ := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerInput("alice", "alice@example.com"), RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	}, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	// Deactivated accounts cannot log in.
	users.users[resp.User.ID].IsActive = false
	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.ParseToken("not-a-token")
	require.Error(t, err)

	// A token signed with a different secret is rejected.
	other := NewAuthService(newFakeUserRepo(), &fakeActivityRepo{}, "other-secret", 60)
	resp, err := other.Register(context.Background(), registerInput("bob", "bob@example.com"), RequestMeta{})
	require.NoError(t, err)

	_, err = svc.ParseToken(resp.AccessToken)
	require.Error(t, err)
}
