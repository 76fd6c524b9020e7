package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
	"blog_aggregator/internal/source"
	"blog_aggregator/internal/source/mocks"
)

type ServiceTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	devMock  *mocks.MockAdapter
	hashMock *mocks.MockAdapter
	service  *Service
	ctx      context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.devMock = mocks.NewMockAdapter(s.ctrl)
	s.hashMock = mocks.NewMockAdapter(s.ctrl)
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.service = NewFromAdapters(map[string]source.Adapter{
		"dev":      s.devMock,
		"hashnode": s.hashMock,
	}, "dev", logger)
}

func (s *ServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceTestSuite) post(id, src string, published time.Time) domain.Post {
	return domain.Post{ID: id, Source: src, PublishedAt: published}
}

func (s *ServiceTestSuite) TestFetchPosts_DefaultsToPrimary() {
	want := []domain.Post{s.post("1", "dev", time.Now())}
	s.devMock.EXPECT().FetchPosts(s.ctx, 10).Return(want, nil)

	posts, err := s.service.FetchPosts(s.ctx, 10, "")

	s.NoError(err)
	s.Equal(want, posts)
}

func (s *ServiceTestSuite) TestFetchPosts_ExplicitSourceCaseInsensitive() {
	want := []domain.Post{s.post("h1", "hashnode", time.Now())}
	s.hashMock.EXPECT().FetchPosts(s.ctx, 5).Return(want, nil)

	posts, err := s.service.FetchPosts(s.ctx, 5, "Hashnode")

	s.NoError(err)
	s.Equal(want, posts)
}

func (s *ServiceTestSuite) TestFetchPosts_UnknownSourceIsEmpty() {
	posts, err := s.service.FetchPosts(s.ctx, 10, "bogus")

	s.NoError(err)
	s.NotNil(posts)
	s.Empty(posts)
}

func (s *ServiceTestSuite) TestFetchPosts_AdapterErrorPropagates() {
	s.devMock.EXPECT().FetchPosts(s.ctx, 10).Return(nil, errors.New("upstream down"))

	_, err := s.service.FetchPosts(s.ctx, 10, "dev")

	s.ErrorContains(err, "upstream down")
}

func (s *ServiceTestSuite) TestFetchPost() {
	want := s.post("42", "dev", time.Now())
	s.devMock.EXPECT().FetchPost(s.ctx, "42").Return(&want, nil)

	post, err := s.service.FetchPost(s.ctx, "42", "dev")

	s.NoError(err)
	s.Equal(&want, post)
}

func (s *ServiceTestSuite) TestFetchPost_UnknownSourceIsNil() {
	post, err := s.service.FetchPost(s.ctx, "42", "bogus")

	s.NoError(err)
	s.Nil(post)
}

func (s *ServiceTestSuite) TestFetchAllPosts_MergesAndSortsDescending() {
	older := s.post("d1", "dev", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newest := s.post("h1", "hashnode", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	middle := s.post("d2", "dev", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	s.devMock.EXPECT().FetchPosts(gomock.Any(), 10).Return([]domain.Post{older, middle}, nil)
	s.hashMock.EXPECT().FetchPosts(gomock.Any(), 10).Return([]domain.Post{newest}, nil)

	posts, err := s.service.FetchAllPosts(s.ctx, 10)

	s.NoError(err)
	s.Require().Len(posts, 3)
	s.Equal("h1", posts[0].ID)
	s.Equal("d2", posts[1].ID)
	s.Equal("d1", posts[2].ID)
}

func (s *ServiceTestSuite) TestFetchAllPosts_OneSourceFailingIsIsolated() {
	surviving := s.post("h1", "hashnode", time.Now())

	s.devMock.EXPECT().FetchPosts(gomock.Any(), 10).Return(nil, errors.New("boom"))
	s.hashMock.EXPECT().FetchPosts(gomock.Any(), 10).Return([]domain.Post{surviving}, nil)

	posts, err := s.service.FetchAllPosts(s.ctx, 10)

	s.NoError(err)
	s.Require().Len(posts, 1)
	s.Equal("h1", posts[0].ID)
}

func (s *ServiceTestSuite) TestFetchAllPosts_AllFailingIsEmpty() {
	s.devMock.EXPECT().FetchPosts(gomock.Any(), 10).Return(nil, errors.New("boom"))
	s.hashMock.EXPECT().FetchPosts(gomock.Any(), 10).Return(nil, errors.New("boom"))

	posts, err := s.service.FetchAllPosts(s.ctx, 10)

	s.NoError(err)
	s.NotNil(posts)
	s.Empty(posts)
}

func (s *ServiceTestSuite) TestAvailableSources() {
	s.Equal([]string{"dev", "hashnode"}, s.service.AvailableSources())
}

func (s *ServiceTestSuite) TestNew_SkipsDisabledAndUnknownSources() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := New(config.BlogConfig{
		PrimarySource: "dev",
		Sources: map[string]config.SourceConfig{
			"dev":      {Enabled: true, Username: "alice"},
			"hashnode": {Enabled: false, Username: "alice"},
			"gopher":   {Enabled: true},
		},
	}, logger)

	s.Equal([]string{"dev"}, svc.AvailableSources())
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
