package usecase_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/usecase"
)

type fakeAPI struct {
	healthErr error
	users     map[int64]*domain.User
	getErr    map[int64]error
	pushErr   map[int64]error
	pushed    []int64
}

func (f *fakeAPI) Health(context.Context) error {
	return f.healthErr
}

func (f *fakeAPI) GetUser(_ context.Context, id int64) (*domain.User, error) {
	if err, ok := f.getErr[id]; ok {
		return nil, err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeAPI) UpdateUser(_ context.Context, u *domain.User) error {
	if err, ok := f.pushErr[u.ID]; ok {
		return err
	}
	f.pushed = append(f.pushed, u.ID)
	return nil
}

type fakeSource struct {
	rows []domain.InputRow
	err  error
}

func (f *fakeSource) ReadRows(context.Context) ([]domain.InputRow, error) {
	return f.rows, f.err
}

type fakeWriter struct {
	users []*domain.User
	rows  []domain.ReportRow
	err   error
}

func (f *fakeWriter) WriteUsers(users []*domain.User) (string, error) {
	f.users = users
	return "out/users_processed.json", f.err
}

func (f *fakeWriter) WriteReport(rows []domain.ReportRow) (string, error) {
	f.rows = rows
	return "out/users_report.csv", nil
}

type fakeUploader struct {
	err   error
	paths []string
}

func (f *fakeUploader) Upload(_ context.Context, runID, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, path)
	return "s3://bucket/" + runID + "/" + path, nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newPipeline(api usecase.BankAPI, src usecase.RowSource, w usecase.ArtifactWriter, up usecase.Uploader) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineConfig{
		API:       api,
		Source:    src,
		Writer:    w,
		Uploader:  up,
		Messages:  usecase.NewMessageGenerator(rand.New(rand.NewPCG(1, 2)), "hello {name}"),
		PushLimit: usecase.DefaultPushLimit,
		Log:       zerolog.Nop(),
		Now:       func() time.Time { return fixedNow },
	})
}

func apiUser(id int64, name, balance string) *domain.User {
	return &domain.User{
		ID:      id,
		Name:    name,
		Account: domain.Account{Number: "acc", Balance: decimal.RequireFromString(balance)},
		News:    []domain.NewsItem{{Icon: "i", Description: "old"}},
	}
}

func TestPipeline_Run(t *testing.T) {
	api := &fakeAPI{
		users: map[int64]*domain.User{
			1: apiUser(1, "Devweekerson", "624.12"),
			2: apiUser(2, "Maria Silva", "1500.5"),
		},
		getErr:  map[int64]error{4: errors.New("connection reset")},
		pushErr: map[int64]error{2: errors.New("status 500")},
	}
	src := &fakeSource{rows: []domain.InputRow{
		{UserID: 1, Name: "ignored"},
		{UserID: 2},
		{UserID: 3, Name: "Sasuke Uchiha"},
		{UserID: 4},
	}}
	w := &fakeWriter{}
	up := &fakeUploader{}

	summary, err := newPipeline(api, src, w, up).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, w.users, 4)
	assert.Equal(t, "Devweekerson", w.users[0].Name)
	assert.Equal(t, "0003-1", w.users[2].Account.Number)
	assert.Equal(t, "**** **** **** 0003", w.users[2].Card.Number)
	assert.Equal(t, "Customer 4", w.users[3].Name)

	first := w.users[0].News
	require.Len(t, first, 2)
	assert.Equal(t, 2, first[1].ID)
	assert.Equal(t, "hello Devweekerson", first[1].Description)
	assert.Equal(t, domain.NewsIcon, first[1].Icon)
	assert.Equal(t, "2024-03-01T12:00:00Z", first[1].Date)
	assert.Equal(t, 1, w.users[2].News[0].ID)

	require.Len(t, w.rows, 4)
	assert.Equal(t, 2, w.rows[0].MessageCount)
	assert.Equal(t, "hello Sasuke Uchiha", w.rows[2].LastMessage)

	assert.Equal(t, []string{"out/users_processed.json", "out/users_report.csv"}, summary.Artifacts)
	assert.Len(t, summary.Uploaded, 2)

	assert.Equal(t, []int64{1, 3}, api.pushed)
	assert.Equal(t, 2, summary.Pushed)
	assert.Equal(t, 3, summary.PushAttempted)

	assert.True(t, summary.APIAvailable)
	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 6, summary.Messages)
	assert.True(t, summary.TotalBalance.Equal(decimal.RequireFromString("4124.62")), "got %s", summary.TotalBalance)
	assert.True(t, summary.AverageBalance.Equal(decimal.RequireFromString("1031.16")), "got %s", summary.AverageBalance)
	assert.Len(t, summary.LastMessages, 3)

	require.Len(t, summary.Failures, 2)
	assert.Equal(t, domain.Failure{Step: usecase.StepExtract, UserID: 4, Error: "connection reset"}, summary.Failures[0])
	assert.Equal(t, domain.Failure{Step: usecase.StepPush, UserID: 2, Error: "status 500"}, summary.Failures[1])
}

func TestPipeline_APIDownRunsLocally(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	api := &fakeAPI{
		healthErr: down,
		getErr:    map[int64]error{1: down, 2: down},
		pushErr:   map[int64]error{1: down, 2: down},
	}
	src := &fakeSource{rows: domain.SampleRows()[:2]}
	w := &fakeWriter{}

	summary, err := newPipeline(api, src, w, nil).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.APIAvailable)
	assert.Equal(t, 2, summary.Users)
	assert.True(t, summary.TotalBalance.Equal(decimal.NewFromInt(2000)))
	assert.Zero(t, summary.Pushed)
	assert.Equal(t, 2, summary.PushAttempted)
	assert.Empty(t, summary.Uploaded)
	// health, two fetches, two pushes
	assert.Len(t, summary.Failures, 5)
}

func TestPipeline_FatalErrors(t *testing.T) {
	api := &fakeAPI{}

	_, err := newPipeline(api, &fakeSource{err: errors.New("permission denied")}, &fakeWriter{}, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read input")

	_, err = newPipeline(api, &fakeSource{rows: domain.SampleRows()}, &fakeWriter{err: errors.New("disk full")}, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write users")
	assert.Empty(t, api.pushed, "nothing is pushed after a failed write")
}

func TestPipeline_UploadFailureIsRecorded(t *testing.T) {
	api := &fakeAPI{}
	up := &fakeUploader{err: errors.New("access denied")}

	summary, err := newPipeline(api, &fakeSource{rows: domain.SampleRows()}, &fakeWriter{}, up).Run(context.Background())
	require.NoError(t, err)

	var uploads int
	for _, f := range summary.Failures {
		if f.Step == usecase.StepUpload {
			uploads++
		}
	}
	assert.Equal(t, 2, uploads)
	assert.Equal(t, 3, summary.Pushed)
}

func TestMessageGenerator(t *testing.T) {
	g := usecase.NewMessageGenerator(rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 20; i++ {
		msg := g.Generate("Ana")
		assert.Contains(t, msg, "Ana")
		assert.NotContains(t, msg, "{name}")
	}

	a := usecase.NewMessageGenerator(rand.New(rand.NewPCG(3, 4)))
	b := usecase.NewMessageGenerator(rand.New(rand.NewPCG(3, 4)))
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Generate("x"), b.Generate("x"), "same seed, same sequence")
	}
}
