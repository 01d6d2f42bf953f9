package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/intel-cli/internal/credibility"
	"github.com/sells-group/intel-cli/internal/extract"
	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/internal/query"
	"github.com/sells-group/intel-cli/internal/store"
	"github.com/sells-group/intel-cli/pkg/jina"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetReport(ctx context.Context, key string) (*model.Report, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *mockStore) SaveReport(ctx context.Context, r *model.Report) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) DeleteExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockStore) Close() error { return m.Called().Error(0) }

// --- Summarizer Mock ---

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, company, competitor string, evidence []model.ScoredResult) (*Summary, error) {
	args := m.Called(ctx, company, competitor, evidence)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Summary), args.Error(1)
}

// --- Jina Reader Mock ---

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Search(ctx context.Context, q string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(*jina.SearchResponse), args.Error(1)
}

func (m *mockReader) Read(ctx context.Context, u string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.ReadResponse), args.Error(1)
}

// --- Searcher stub ---

type stubSearcher struct {
	evidence   []model.SearchResult
	leadership []model.SearchResult
}

func (s *stubSearcher) FanOut(_ context.Context, queries []string) []model.SearchResult {
	if len(queries) > 0 && strings.Contains(queries[0], "appoints") {
		return s.leadership
	}
	return s.evidence
}

var fixedNow = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func goodEvidence() []model.SearchResult {
	v := 0.5
	return []model.SearchResult{
		{
			Title:       "Acme Corp to buy Globex",
			URL:         "https://www.reuters.com/business/2024/03/acme-acquires-globex-for-growth",
			Content:     `On March 3, 2024, Acme Corp agreed to acquire Globex for $2.1 billion. "This deal doubles our reach in logistics," Acme Corp CEO Jane Doe said in a statement.`,
			VendorScore: &v,
		},
		{
			Title:   "Acme Corp customers",
			URL:     "https://acme.com/customers",
			Content: "Trusted by leading brands worldwide. Best-in-class solutions for everyone.",
		},
	}
}

func leadershipHits() []model.SearchResult {
	return []model.SearchResult{
		{
			Title:   "Acme Corp Appoints Jane Doe as CFO",
			URL:     "https://www.businesswire.com/news/home/20240301005123/en/acme-corp-appoints-jane-doe-cfo",
			Content: `NEW YORK, March 1, 2024 -- Acme Corp today named Jane Doe chief financial officer. "Jane brings deep experience in logistics finance," Acme Corp CEO John Roe said.`,
		},
		{Title: "Acme Corp is hiring a Chief Financial Officer", URL: "https://acme.com/careers/cfo-opening"},
	}
}

func newTestService(st store.Store, srch Searcher, sum Summarizer) *Service {
	svc := NewService(Deps{
		Store:      st,
		Searcher:   srch,
		Queries:    query.NewGenerator(query.DefaultConfig()),
		Scorer:     credibility.New(credibility.DefaultOptions(), credibility.DefaultLexicon()),
		Extractor:  extract.New(false),
		Summarizer: sum,
	})
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "rep-1" }
	return svc
}

func TestAnalyze_BuildsAndSavesReport(t *testing.T) {
	st := new(mockStore)
	st.On("GetReport", mock.Anything, "acme corp").Return(nil, store.ErrNotFound)
	st.On("SaveReport", mock.Anything, mock.AnythingOfType("*model.Report")).Return(nil)

	sum := new(mockSummarizer)
	sum.On("Summarize", mock.Anything, "Acme Corp", "", mock.Anything).Return(&Summary{
		Text:       "Acme Corp is acquiring Globex [1].",
		Sentiment:  model.SentimentPositive,
		QuickFacts: []string{"$2.1B Globex deal [1]"},
		Model:      "claude-haiku-4-5-20251001",
	}, nil)

	svc := newTestService(st, &stubSearcher{evidence: goodEvidence(), leadership: leadershipHits()}, sum)
	r, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "  Acme Corp ", UserID: "u-1"})
	require.NoError(t, err)

	assert.Equal(t, "rep-1", r.ID)
	assert.Equal(t, "acme corp", r.Key)
	assert.Equal(t, "Acme Corp", r.Company)
	assert.False(t, r.FromCache)
	assert.Equal(t, "u-1", r.RequestedBy)
	assert.Equal(t, fixedNow.Add(DefaultTTL), r.ExpiresAt)

	require.Len(t, r.Evidence, 1, "listing page is vetoed")
	assert.Contains(t, r.Evidence[0].URL, "reuters.com")

	require.Len(t, r.LeadershipChanges, 1, "career page is dropped")
	assert.Equal(t, "Jane Doe", r.LeadershipChanges[0].PersonName)
	assert.Equal(t, model.ChangeAppointed, r.LeadershipChanges[0].ChangeType)
	assert.Equal(t, "2024-03-01", r.LeadershipChanges[0].Date)
	assert.Contains(t, r.LeadershipChanges[0].SourceURL, "businesswire.com")

	assert.Equal(t, model.SentimentPositive, r.Sentiment)
	assert.Equal(t, "claude-haiku-4-5-20251001", r.Model)
	assert.NotEmpty(t, r.Queries)

	st.AssertExpectations(t)
	sum.AssertExpectations(t)
}

func TestAnalyze_LeadershipHitsAreScored(t *testing.T) {
	announcement := `NEW YORK, March 1, 2024 -- Acme Corp today named Jane Doe chief financial officer. "Jane brings deep experience in logistics finance," Acme Corp CEO John Roe said.`
	tests := []struct {
		name string
		hit  model.SearchResult
		want int
	}{
		{
			name: "accepted article",
			hit: model.SearchResult{
				Title:   "Acme Corp Appoints Jane Doe as CFO",
				URL:     "https://www.businesswire.com/news/home/20240301005123/en/acme-corp-appoints-jane-doe-cfo",
				Content: announcement,
			},
			want: 1,
		},
		{
			name: "listing page is vetoed",
			hit:  model.SearchResult{Title: "Acme Corp Appoints Jane Doe as CFO", URL: "https://acme.com/news", Content: announcement},
		},
		{
			name: "index page is vetoed",
			hit:  model.SearchResult{Title: "Acme Corp Appoints Jane Doe as CFO", URL: "https://acme.com/", Content: announcement},
		},
		{
			name: "snippet without content scores too low",
			hit:  model.SearchResult{Title: "Acme Corp Appoints Jane Doe as CFO", URL: "https://news.example.com/2024/acme-appoints-jane-doe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(mockStore)
			st.On("GetReport", mock.Anything, "acme corp").Return(nil, store.ErrNotFound)
			st.On("SaveReport", mock.Anything, mock.AnythingOfType("*model.Report")).Return(nil)

			svc := newTestService(st, &stubSearcher{leadership: []model.SearchResult{tt.hit}}, nil)
			r, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "Acme Corp"})
			require.NoError(t, err)
			assert.Len(t, r.LeadershipChanges, tt.want)
			assert.NotNil(t, r.LeadershipChanges)
		})
	}
}

func TestAnalyze_ServesFreshCache(t *testing.T) {
	cached := &model.Report{ID: "old", Key: "acme", Company: "Acme", ExpiresAt: fixedNow.Add(time.Hour)}
	st := new(mockStore)
	st.On("GetReport", mock.Anything, "acme").Return(cached, nil)

	srch := &stubSearcher{}
	svc := newTestService(st, srch, nil)
	r, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, "old", r.ID)
	assert.True(t, r.FromCache)
	st.AssertNotCalled(t, "SaveReport", mock.Anything, mock.Anything)
}

func TestAnalyze_CacheForOtherCompetitorIsRebuilt(t *testing.T) {
	cached := &model.Report{ID: "old", Key: "acme", Company: "Acme", Competitor: "Globex", ExpiresAt: fixedNow.Add(time.Hour)}
	st := new(mockStore)
	st.On("GetReport", mock.Anything, "acme").Return(cached, nil)
	st.On("SaveReport", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(st, &stubSearcher{}, nil)
	r, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "Acme", Competitor: "Initech"})
	require.NoError(t, err)
	assert.Equal(t, "rep-1", r.ID)
	assert.Equal(t, "Initech", r.Competitor)
}

func TestAnalyze_RefreshSkipsCache(t *testing.T) {
	st := new(mockStore)
	st.On("SaveReport", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(st, &stubSearcher{}, nil)
	r, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "Acme", Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, "rep-1", r.ID)
	st.AssertNotCalled(t, "GetReport", mock.Anything, mock.Anything)
}

func TestAnalyze_SummaryFailureDegrades(t *testing.T) {
	st := new(mockStore)
	st.On("GetReport", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)
	st.On("SaveReport", mock.Anything, mock.Anything).Return(nil)

	sum := new(mockSummarizer)
	sum.On("Summarize", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	svc := newTestService(st, &stubSearcher{evidence: goodEvidence()}, sum)
	r, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "Acme Corp"})
	require.NoError(t, err)
	assert.Empty(t, r.Summary)
	assert.Equal(t, model.SentimentNeutral, r.Sentiment)
	assert.Len(t, r.Evidence, 1)
}

func TestAnalyze_NoEvidenceSkipsSummary(t *testing.T) {
	st := new(mockStore)
	st.On("GetReport", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)
	st.On("SaveReport", mock.Anything, mock.Anything).Return(nil)
	sum := new(mockSummarizer)

	svc := newTestService(st, &stubSearcher{}, sum)
	r, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "Acme"})
	require.NoError(t, err)
	assert.Empty(t, r.Evidence)
	assert.NotNil(t, r.LeadershipChanges)
	sum.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyze_CacheErrorStillBuilds(t *testing.T) {
	st := new(mockStore)
	st.On("GetReport", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	st.On("SaveReport", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(st, &stubSearcher{}, nil)
	_, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "Acme"})
	require.NoError(t, err)
}

func TestAnalyze_SaveError(t *testing.T) {
	st := new(mockStore)
	st.On("GetReport", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)
	st.On("SaveReport", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := newTestService(st, &stubSearcher{}, nil)
	_, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report: save")
}

func TestAnalyze_EmptyCompany(t *testing.T) {
	svc := newTestService(new(mockStore), &stubSearcher{}, nil)
	_, err := svc.Analyze(context.Background(), model.AnalyzeRequest{Company: "   "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAnalyze_CanceledContext(t *testing.T) {
	st := new(mockStore)
	st.On("GetReport", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(st, &stubSearcher{}, nil)
	_, err := svc.Analyze(ctx, model.AnalyzeRequest{Company: "Acme"})
	require.Error(t, err)
	st.AssertNotCalled(t, "SaveReport", mock.Anything, mock.Anything)
}

func TestGet(t *testing.T) {
	st := new(mockStore)
	st.On("GetReport", mock.Anything, "acme").Return(&model.Report{ID: "r"}, nil)
	st.On("GetReport", mock.Anything, "missing").Return(nil, store.ErrNotFound)

	svc := newTestService(st, &stubSearcher{}, nil)

	r, err := svc.Get(context.Background(), "Acme")
	require.NoError(t, err)
	assert.True(t, r.FromCache)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestFillShort_UsesReader(t *testing.T) {
	rd := new(mockReader)
	rd.On("Read", mock.Anything, "https://a.com/1").Return(&jina.ReadResponse{Data: jina.ReadData{Content: "Full body text."}}, nil)
	rd.On("Read", mock.Anything, "https://b.com/2").Return(nil, errors.New("403"))

	svc := NewService(Deps{Reader: rd})
	got := svc.fillShort(context.Background(), []model.Article{
		{URL: "https://a.com/1", Content: "snip"},
		{URL: "https://b.com/2", Content: "kept"},
		{URL: "https://c.com/3", Content: strings.Repeat("x", shortArticle)},
	})
	assert.Equal(t, "Full body text.", got[0].Content)
	assert.Equal(t, "kept", got[1].Content)
	rd.AssertNotCalled(t, "Read", mock.Anything, "https://c.com/3")
}
