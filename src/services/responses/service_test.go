package responses

import (
	"context"
	"errors"
	"testing"
	"time"

	"formulate-backend/src/models"
	"formulate-backend/src/services/forms"
	"formulate-backend/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, r *models.Response) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Response, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *mockStore) ListByForm(ctx context.Context, formID primitive.ObjectID, params models.PaginationParams) ([]models.Response, int64, error) {
	args := m.Called(ctx, formID, params)
	return args.Get(0).([]models.Response), args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) FindForSummary(ctx context.Context, formID primitive.ObjectID, start, end *time.Time) ([]models.Response, error) {
	args := m.Called(ctx, formID, start, end)
	return args.Get(0).([]models.Response), args.Error(1)
}

func (m *mockStore) CountByStatus(ctx context.Context, formID primitive.ObjectID) (models.ResponseRate, error) {
	args := m.Called(ctx, formID)
	return args.Get(0).(models.ResponseRate), args.Error(1)
}

func (m *mockStore) CompleteExistsForIP(ctx context.Context, formID primitive.ObjectID, ip string) (bool, error) {
	args := m.Called(ctx, formID, ip)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) DeleteByForm(ctx context.Context, formID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, formID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) SetWebhookStatus(ctx context.Context, id primitive.ObjectID, status models.WebhookStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockForms struct {
	mock.Mock
}

func (m *mockForms) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Form, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Form), args.Error(1)
}

func (m *mockForms) IncrementResponseCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	return m.Called(ctx, id, delta).Error(0)
}

type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) Claim(ctx context.Context, formID, ip string) (bool, error) {
	args := m.Called(ctx, formID, ip)
	return args.Bool(0), args.Error(1)
}

func (m *mockGuard) Release(ctx context.Context, formID, ip string) {
	m.Called(ctx, formID, ip)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, form *models.Form, resp *models.Response) {
	m.Called(ctx, form, resp)
}

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

type fixture struct {
	form     *models.Form
	name     models.Field
	likes    models.Field
	why      models.Field
	store    *mockStore
	forms    *mockForms
	guard    *mockGuard
	notifier *mockNotifier
	svc      *Service
}

func newFixture() *fixture {
	fx := &fixture{
		name:     test.NewField(0, models.FieldText, "Name", test.Required()),
		likes:    test.NewField(1, models.FieldRadio, "Do you like it?", test.Options("yes", "no")),
		why:      test.NewField(2, models.FieldNumber, "How much?", test.Required(), test.Bounds(1, 10), test.DependsOn(1, models.CondEquals, "yes")),
		store:    new(mockStore),
		forms:    new(mockForms),
		guard:    new(mockGuard),
		notifier: new(mockNotifier),
	}
	fx.form = test.NewForm(test.NewPage("About you", 0, fx.name, fx.likes, fx.why))
	fx.svc = NewService(fx.store, fx.forms, fx.guard, fx.notifier)
	fx.svc.now = func() time.Time { return fixedNow }
	fx.forms.On("FindByID", mock.Anything, fx.form.ID).Return(fx.form, nil).Maybe()
	return fx
}

func (fx *fixture) request(status models.ResponseStatus, answers ...models.AnswerInput) models.SubmitResponseRequest {
	return models.SubmitResponseRequest{FormID: fx.form.ID.Hex(), Answers: answers, Status: status, TimeSpentMs: 42000}
}

func answer(f models.Field, v any) models.AnswerInput {
	return models.AnswerInput{FieldID: f.ID.Hex(), Value: v}
}

var meta = RequestMeta{IP: "203.0.113.7", UserAgent: iphoneUA, Language: "en-US"}

func TestSubmitStoresVisibleAnswers(t *testing.T) {
	fx := newFixture()
	fx.form.Settings.PreventDuplicateSubmissions = false

	var stored *models.Response
	fx.store.On("Insert", mock.Anything, mock.AnythingOfType("*models.Response")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Response) }).
		Return(nil)
	fx.forms.On("IncrementResponseCount", mock.Anything, fx.form.ID, int64(1)).Return(nil)

	out, err := fx.svc.Submit(context.Background(), fx.request("",
		answer(fx.name, "Ada"),
		answer(fx.likes, "no"),
		answer(fx.why, "7"),
	), meta)

	require.NoError(t, err)
	require.NotNil(t, out.Response)
	assert.True(t, out.Validation.Valid)
	require.NotNil(t, stored)
	assert.Equal(t, models.ResponseComplete, stored.Status)
	assert.Equal(t, fixedNow, stored.CompletedAt)
	assert.Equal(t, models.DeviceMobile, stored.Device)
	assert.Equal(t, int64(42000), stored.TimeSpentMs)

	// The hidden follow-up is dropped even though it was posted.
	require.Len(t, stored.Answers, 2)
	assert.Equal(t, "Name", stored.Answers[0].FieldLabel)
	assert.Equal(t, models.FieldRadio, stored.Answers[1].FieldType)
	fx.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	fx.forms.AssertExpectations(t)
}

func TestSubmitNormalizesNumbers(t *testing.T) {
	fx := newFixture()
	fx.form.Settings.PreventDuplicateSubmissions = false

	var stored *models.Response
	fx.store.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Response) }).
		Return(nil)
	fx.forms.On("IncrementResponseCount", mock.Anything, fx.form.ID, int64(1)).Return(nil)

	_, err := fx.svc.Submit(context.Background(), fx.request("",
		answer(fx.name, "Ada"),
		answer(fx.likes, "yes"),
		answer(fx.why, "7"),
	), meta)

	require.NoError(t, err)
	require.Len(t, stored.Answers, 3)
	assert.Equal(t, 7.0, stored.Answers[2].Value)
}

func TestSubmitReturnsValidationErrors(t *testing.T) {
	fx := newFixture()

	out, err := fx.svc.Submit(context.Background(), fx.request("",
		answer(fx.likes, "yes"),
		answer(fx.why, "11"),
	), meta)

	require.NoError(t, err)
	assert.Nil(t, out.Response)
	assert.False(t, out.Validation.Valid)
	assert.Equal(t, "This field is required", out.Validation.Errors[fx.name.ID.Hex()])
	assert.Equal(t, "Value must be at most 10", out.Validation.Errors[fx.why.ID.Hex()])
	fx.store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitRejectsUndeclaredOption(t *testing.T) {
	fx := newFixture()

	out, err := fx.svc.Submit(context.Background(), fx.request("",
		answer(fx.name, "Ada"),
		answer(fx.likes, "maybe"),
	), meta)

	require.NoError(t, err)
	assert.Nil(t, out.Response)
	assert.Equal(t, "Please select one of the available options", out.Validation.Errors[fx.likes.ID.Hex()])
	fx.store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitRejectsUnavailableForms(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	cases := []struct {
		name   string
		mutate func(*models.Form)
		want   error
	}{
		{"Draft", func(f *models.Form) { f.Status = models.StatusDraft }, forms.ErrNotPublished},
		{"Expired", func(f *models.Form) { f.ExpiryDate = &past }, forms.ErrFormClosed},
		{"NotYetOpen", func(f *models.Form) {
			f.Status = models.StatusScheduled
			f.PublishDate = &future
		}, forms.ErrNotYetOpen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture()
			tc.mutate(fx.form)
			_, err := fx.svc.Submit(context.Background(), fx.request("", answer(fx.name, "Ada")), meta)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSubmitInvalidIDs(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.Submit(context.Background(), models.SubmitResponseRequest{FormID: "nope"}, meta)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = fx.svc.Submit(context.Background(), fx.request("", models.AnswerInput{FieldID: "zz", Value: "x"}), meta)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestSubmitDrafts(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		fx := newFixture()
		_, err := fx.svc.Submit(context.Background(), fx.request(models.ResponseDraft), meta)
		assert.ErrorIs(t, err, ErrDraftsDisabled)
	})

	t.Run("SkipsValidationAndCount", func(t *testing.T) {
		fx := newFixture()
		fx.form.Settings.AllowSavingDrafts = true
		fx.store.On("Insert", mock.Anything, mock.Anything).Return(nil)

		out, err := fx.svc.Submit(context.Background(), fx.request(models.ResponsePartial, answer(fx.likes, "yes")), meta)

		require.NoError(t, err)
		assert.Equal(t, models.ResponsePartial, out.Response.Status)
		assert.True(t, out.Response.CompletedAt.IsZero())
		fx.forms.AssertNotCalled(t, "IncrementResponseCount", mock.Anything, mock.Anything, mock.Anything)
		fx.guard.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSubmitPasswordProtected(t *testing.T) {
	fx := newFixture()
	fx.form.AccessCode.Enabled = true
	fx.form.AccessCode.CodeHash = "$2a$10$invalidhashinvalidhashinvalidhashinvalidhashinvalidha"

	_, err := fx.svc.Submit(context.Background(), fx.request("", answer(fx.name, "Ada")), meta)
	assert.ErrorIs(t, err, forms.ErrWrongPassword)
}

func TestSubmitDuplicateGuard(t *testing.T) {
	formHex := func(fx *fixture) string { return fx.form.ID.Hex() }

	t.Run("ClaimedElsewhere", func(t *testing.T) {
		fx := newFixture()
		fx.guard.On("Claim", mock.Anything, formHex(fx), meta.IP).Return(false, nil)

		_, err := fx.svc.Submit(context.Background(), fx.request("", answer(fx.name, "Ada")), meta)

		assert.ErrorIs(t, err, ErrDuplicate)
		fx.store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("StoredEarlier", func(t *testing.T) {
		fx := newFixture()
		fx.guard.On("Claim", mock.Anything, formHex(fx), meta.IP).Return(true, nil)
		fx.store.On("CompleteExistsForIP", mock.Anything, fx.form.ID, meta.IP).Return(true, nil)

		_, err := fx.svc.Submit(context.Background(), fx.request("", answer(fx.name, "Ada")), meta)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("GuardDownFallsBackToDatabase", func(t *testing.T) {
		fx := newFixture()
		fx.guard.On("Claim", mock.Anything, formHex(fx), meta.IP).Return(false, errors.New("redis down"))
		fx.store.On("CompleteExistsForIP", mock.Anything, fx.form.ID, meta.IP).Return(false, nil)
		fx.store.On("Insert", mock.Anything, mock.Anything).Return(nil)
		fx.forms.On("IncrementResponseCount", mock.Anything, fx.form.ID, int64(1)).Return(nil)

		out, err := fx.svc.Submit(context.Background(), fx.request("", answer(fx.name, "Ada")), meta)
		require.NoError(t, err)
		assert.NotNil(t, out.Response)
	})

	t.Run("ReleasedWhenInsertFails", func(t *testing.T) {
		fx := newFixture()
		fx.guard.On("Claim", mock.Anything, formHex(fx), meta.IP).Return(true, nil)
		fx.guard.On("Release", mock.Anything, formHex(fx), meta.IP).Return()
		fx.store.On("CompleteExistsForIP", mock.Anything, fx.form.ID, meta.IP).Return(false, nil)
		fx.store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("write failed"))

		_, err := fx.svc.Submit(context.Background(), fx.request("", answer(fx.name, "Ada")), meta)

		assert.Error(t, err)
		fx.guard.AssertExpectations(t)
	})
}

func TestSubmitNotifiesWebhook(t *testing.T) {
	fx := newFixture()
	fx.form.Settings.PreventDuplicateSubmissions = false
	fx.form.Settings.WebhookURL = "https://hooks.example.com/formulate"
	fx.store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	fx.forms.On("IncrementResponseCount", mock.Anything, fx.form.ID, int64(1)).Return(nil)
	fx.notifier.On("Notify", mock.Anything, fx.form, mock.AnythingOfType("*models.Response")).Return()

	_, err := fx.svc.Submit(context.Background(), fx.request("", answer(fx.name, "Ada")), meta)

	require.NoError(t, err)
	fx.notifier.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	fx := newFixture()
	owner := primitive.NewObjectID()
	fx.form.Creator = owner
	resp := test.NewResponse(fx.form.ID, test.Day(3, 10), []models.Field{fx.name}, "Ada")

	fx.store.On("FindByID", mock.Anything, resp.ID).Return(&resp, nil)
	fx.store.On("Delete", mock.Anything, resp.ID).Return(nil)
	fx.forms.On("IncrementResponseCount", mock.Anything, fx.form.ID, int64(-1)).Return(nil)

	assert.ErrorIs(t, fx.svc.Delete(context.Background(), primitive.NewObjectID(), resp.ID), forms.ErrForbidden)
	require.NoError(t, fx.svc.Delete(context.Background(), owner, resp.ID))
	fx.store.AssertNumberOfCalls(t, "Delete", 1)
	fx.forms.AssertExpectations(t)
}

func TestList(t *testing.T) {
	fx := newFixture()
	owner := primitive.NewObjectID()
	fx.form.Creator = owner
	items := []models.Response{test.NewResponse(fx.form.ID, test.Day(3, 10), []models.Field{fx.name}, "Ada")}
	fx.store.On("ListByForm", mock.Anything, fx.form.ID, mock.Anything).Return(items, int64(1), nil)

	page, err := fx.svc.List(context.Background(), owner, fx.form.ID, models.PaginationParams{SortBy: "ipAddress"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	params := fx.store.Calls[0].Arguments.Get(2).(models.PaginationParams)
	assert.Equal(t, "createdAt", params.SortBy)
}

func TestSummaryUsesUnfilteredRate(t *testing.T) {
	fx := newFixture()
	owner := primitive.NewObjectID()
	fx.form.Creator = owner
	fields := []models.Field{fx.name, fx.likes}
	loaded := []models.Response{
		test.NewResponse(fx.form.ID, test.Day(3, 10), fields, "Ada", "yes"),
		test.NewResponse(fx.form.ID, test.Day(4, 10), fields, "Grace", "no"),
	}
	rate := models.ResponseRate{Complete: 5, Partial: 2, Draft: 1}
	fx.store.On("FindForSummary", mock.Anything, fx.form.ID, (*time.Time)(nil), (*time.Time)(nil)).Return(loaded, nil)
	fx.store.On("CountByStatus", mock.Anything, fx.form.ID).Return(rate, nil)

	out, err := fx.svc.Summary(context.Background(), owner, fx.form.ID, SummaryQuery{
		FilterField: fx.likes.ID.Hex(),
		FilterValue: "yes",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalResponses)
	assert.Equal(t, rate, out.ResponseRate)

	_, err = fx.svc.Summary(context.Background(), owner, fx.form.ID, SummaryQuery{FilterField: "bad"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestValidatePage(t *testing.T) {
	fx := newFixture()

	res, err := fx.svc.ValidatePage(context.Background(), fx.form.ID.Hex(), 0, models.ValidatePageRequest{
		Answers: models.Answers{fx.likes.ID.Hex(): "maybe"},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "This field is required", res.Errors[fx.name.ID.Hex()])
	assert.NotContains(t, res.Errors, fx.likes.ID.Hex())

	_, err = fx.svc.ValidatePage(context.Background(), fx.form.ID.Hex(), 3, models.ValidatePageRequest{})
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestVisibility(t *testing.T) {
	fx := newFixture()

	shown, err := fx.svc.Visibility(context.Background(), fx.form.ID.Hex(), models.Answers{fx.likes.ID.Hex(): "yes"})
	require.NoError(t, err)
	assert.True(t, shown[fx.why.ID.Hex()])

	shown, err = fx.svc.Visibility(context.Background(), fx.form.ID.Hex(), nil)
	require.NoError(t, err)
	assert.False(t, shown[fx.why.ID.Hex()])
	assert.True(t, shown[fx.name.ID.Hex()])
}
