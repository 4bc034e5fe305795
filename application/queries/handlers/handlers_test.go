package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/application/queries"
	"github.com/engmung/portfolio-Nat/application/queries/bus"
	"github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
	"github.com/engmung/portfolio-Nat/domain/versioning"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
	"github.com/engmung/portfolio-Nat/tests/fixtures"
)

type staticSnapshots struct {
	snap *services.Snapshot
}

func (s staticSnapshots) CurrentOrErr() (*services.Snapshot, error) {
	if s.snap == nil {
		return nil, apperrors.ErrGraphNotReady
	}
	return s.snap, nil
}

// MockKnowledgeStore is a mock implementation of ports.KnowledgeStore
type MockKnowledgeStore struct {
	mock.Mock
}

func (m *MockKnowledgeStore) ListItems(ctx context.Context) ([]domainservices.RawItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainservices.RawItem), args.Error(1)
}

func (m *MockKnowledgeStore) Upload(ctx context.Context, filename string, content []byte) (*ports.StoreReply, error) {
	args := m.Called(ctx, filename, content)
	return args.Get(0).(*ports.StoreReply), args.Error(1)
}

func (m *MockKnowledgeStore) Delete(ctx context.Context, filename string) (*ports.StoreReply, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(*ports.StoreReply), args.Error(1)
}

func (m *MockKnowledgeStore) Rebuild(ctx context.Context) (*ports.StoreReply, error) {
	args := m.Called(ctx)
	return args.Get(0).(*ports.StoreReply), args.Error(1)
}

func (m *MockKnowledgeStore) Template(ctx context.Context) (*ports.KnowledgeFile, error) {
	args := m.Called(ctx)
	return args.Get(0).(*ports.KnowledgeFile), args.Error(1)
}

func (m *MockKnowledgeStore) Download(ctx context.Context, filename string) (*ports.KnowledgeFile, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.KnowledgeFile), args.Error(1)
}

// MockAIQuerier is a mock implementation of ports.AIQuerier
type MockAIQuerier struct {
	mock.Mock
}

func (m *MockAIQuerier) Query(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

// testSnapshot: hub(1,dev) - a(2,dev ai) - leaf(3,ai); lone(1,3D) isolated
func testSnapshot(t *testing.T) *services.Snapshot {
	t.Helper()
	g, err := aggregates.NewGraph(
		[]*entities.Node{
			fixtures.Node("hub", 1, "dev"),
			fixtures.Node("a", 2, "dev", "ai"),
			fixtures.Node("leaf", 3, "ai"),
			fixtures.Node("lone", 1, "3D"),
		},
		[]entities.Link{
			fixtures.Link("hub", "a", "dev"),
			fixtures.Link("a", "leaf", "ai"),
		},
	)
	require.NoError(t, err)
	version, err := versioning.NewVersioningService().CreateVersion(g, 7, "deterministic")
	require.NoError(t, err)
	return &services.Snapshot{Graph: g, Version: version}
}

func newQueryBus(t *testing.T, snap *services.Snapshot, store *MockKnowledgeStore, querier *MockAIQuerier) *bus.QueryBus {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	classifier := domainservices.NewClassifier(cfg.Palette)
	provider := staticSnapshots{snap: snap}

	b := bus.NewQueryBus()
	err := RegisterAll(b,
		NewGetGraphDataHandler(provider, classifier, zap.NewNop()),
		NewGraphQueryHandlers(provider, classifier),
		NewKnowledgeQueryHandlers(store, querier, domainservices.NewNormalizer(cfg, zap.NewNop()), validators.NewKnowledgeFileValidator(cfg), zap.NewNop()),
	)
	require.NoError(t, err)
	return b
}

func TestGetGraphData_WithoutHover(t *testing.T) {
	// Arrange
	b := newQueryBus(t, testSnapshot(t), nil, nil)

	// Act
	result, err := bus.Ask[*queries.GetGraphDataResult](context.Background(), b, queries.GetGraphDataQuery{})

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Nodes, 4)
	require.Len(t, result.Links, 2)
	assert.Empty(t, result.Hovered)
	assert.Equal(t, uint64(7), result.Version.Generation)

	hub := result.Nodes[0]
	assert.Equal(t, "hub", hub.ID)
	assert.Equal(t, "#FFC107", hub.Color)
	assert.Equal(t, 12, hub.Size)
	assert.Equal(t, "bold", hub.Weight)
	assert.Equal(t, []string{"a"}, hub.Neighbors)
	assert.Equal(t, []int{0}, hub.Links)

	lone := result.Nodes[3]
	assert.Equal(t, "#4CAF50", lone.Color)
	assert.Equal(t, []string{}, lone.Neighbors)
	assert.Equal(t, []int{}, lone.Links)

	for _, l := range result.Links {
		assert.Equal(t, "#ffffff", l.Color)
		assert.False(t, l.Highlighted)
	}
	assert.Equal(t, 2, result.Stats.ClusterCount)
	assert.Equal(t, 1, result.Stats.IsolatedCount)
}

func TestGetGraphData_HoverColorsNeighborhood(t *testing.T) {
	b := newQueryBus(t, testSnapshot(t), nil, nil)

	result, err := bus.Ask[*queries.GetGraphDataResult](context.Background(), b, queries.GetGraphDataQuery{Hover: "a"})

	require.NoError(t, err)
	assert.Equal(t, "a", result.Hovered)
	colors := map[string]string{}
	for _, n := range result.Nodes {
		colors[n.ID] = n.Color
	}
	assert.Equal(t, map[string]string{"hub": "#ff6b6b", "a": "#ff0000", "leaf": "#ff6b6b", "lone": "#4CAF50"}, colors)
	assert.Equal(t, "#ff0000", result.Links[0].Color)
	assert.Equal(t, "#ff0000", result.Links[1].Color)
}

func TestGetGraphData_UnknownHoverRendersLikeNoHover(t *testing.T) {
	b := newQueryBus(t, testSnapshot(t), nil, nil)

	result, err := bus.Ask[*queries.GetGraphDataResult](context.Background(), b, queries.GetGraphDataQuery{Hover: "ghost"})

	require.NoError(t, err)
	assert.Empty(t, result.Hovered)
	for _, n := range result.Nodes {
		assert.False(t, n.Highlighted, n.ID)
	}
}

func TestGraphQueries_NotReady(t *testing.T) {
	b := newQueryBus(t, nil, nil, nil)

	_, err := b.Ask(context.Background(), queries.GetGraphDataQuery{})

	assert.ErrorIs(t, err, apperrors.ErrGraphNotReady)
}

func TestGetNode(t *testing.T) {
	b := newQueryBus(t, testSnapshot(t), nil, nil)

	tests := []struct {
		name    string
		nodeID  string
		wantErr error
		wantVal bool
	}{
		{name: "known node", nodeID: "a"},
		{name: "unknown node", nodeID: "ghost", wantErr: apperrors.ErrNodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := bus.Ask[*queries.GetNodeResult](context.Background(), b, queries.GetNodeQuery{NodeID: tt.nodeID})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", result.ID)
			assert.Equal(t, []string{"dev", "ai"}, result.Tags)
			assert.Equal(t, []string{"hub", "leaf"}, result.Neighbors)
			assert.Equal(t, 2, result.Degree)
			assert.Equal(t, "#2196F3", result.LevelColor)
		})
	}
}

func TestGetNode_RequiresID(t *testing.T) {
	b := newQueryBus(t, testSnapshot(t), nil, nil)

	_, err := b.Ask(context.Background(), queries.GetNodeQuery{})

	var verrs *apperrors.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestGetHighlight(t *testing.T) {
	b := newQueryBus(t, testSnapshot(t), nil, nil)

	tests := []struct {
		name      string
		nodeID    string
		wantNodes []string
		wantLinks []int
	}{
		{name: "middle node", nodeID: "a", wantNodes: []string{"a", "hub", "leaf"}, wantLinks: []int{0, 1}},
		{name: "isolated", nodeID: "lone", wantNodes: []string{"lone"}, wantLinks: []int{}},
		{name: "exit", nodeID: "", wantNodes: []string{}, wantLinks: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := bus.Ask[*queries.GetHighlightResult](context.Background(), b, queries.GetHighlightQuery{NodeID: tt.nodeID})

			require.NoError(t, err)
			assert.Equal(t, tt.wantNodes, result.Nodes)
			assert.Equal(t, tt.wantLinks, result.Links)
		})
	}
}

func TestFindPathAndClusters(t *testing.T) {
	b := newQueryBus(t, testSnapshot(t), nil, nil)
	ctx := context.Background()

	path, err := bus.Ask[*queries.FindPathResult](ctx, b, queries.FindPathQuery{From: "hub", To: "leaf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hub", "a", "leaf"}, path.Path)
	assert.Equal(t, 2, path.Hops)

	_, err = b.Ask(ctx, queries.FindPathQuery{From: "hub", To: "lone"})
	assert.ErrorIs(t, err, apperrors.ErrNoPath)

	_, err = b.Ask(ctx, queries.FindPathQuery{From: "hub", To: "ghost"})
	assert.ErrorIs(t, err, apperrors.ErrNodeNotFound)

	clusters, err := bus.Ask[*queries.GetClustersResult](ctx, b, queries.GetClustersQuery{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"hub", "a", "leaf"}, {"lone"}}, clusters.Clusters)
}

func TestListKnowledgeFiles(t *testing.T) {
	// Arrange
	store := new(MockKnowledgeStore)
	store.On("ListItems", mock.Anything).Return([]domainservices.RawItem{
		{ID: "react", Filename: "react.yaml", Name: "React", Level: 2, Tags: []interface{}{"dev"}},
		{Filename: "blender.yaml", Level: "1"},
		{ID: "react", Level: 3},
	}, nil)
	b := newQueryBus(t, testSnapshot(t), store, nil)

	// Act
	result, err := bus.Ask[*queries.ListKnowledgeFilesResult](context.Background(), b, queries.ListKnowledgeFilesQuery{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	require.Len(t, result.Files, 3)
	assert.Equal(t, "React", result.Files[0].Name)
	assert.Equal(t, "blender.yaml", result.Files[1].ID)
	assert.Equal(t, []string{}, result.Files[1].Tags)
	store.AssertExpectations(t)
}

func TestListKnowledgeFiles_StoreFailure(t *testing.T) {
	store := new(MockKnowledgeStore)
	store.On("ListItems", mock.Anything).Return(nil, apperrors.NewNetworkError("knowledge store unreachable", errors.New("dial tcp")))
	b := newQueryBus(t, testSnapshot(t), store, nil)

	_, err := b.Ask(context.Background(), queries.ListKnowledgeFilesQuery{})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
}

func TestDownloadKnowledgeFile(t *testing.T) {
	store := new(MockKnowledgeStore)
	store.On("Download", mock.Anything, "react.yaml").Return(&ports.KnowledgeFile{Filename: "react.yaml", Content: []byte("id: react")}, nil)
	b := newQueryBus(t, testSnapshot(t), store, nil)
	ctx := context.Background()

	file, err := bus.Ask[*ports.KnowledgeFile](ctx, b, queries.DownloadKnowledgeFileQuery{Filename: "react.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "id: react", string(file.Content))

	_, err = b.Ask(ctx, queries.DownloadKnowledgeFileQuery{Filename: "../secrets.yaml"})
	var verrs *apperrors.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	store.AssertNumberOfCalls(t, "Download", 1)
}

func TestAskAI(t *testing.T) {
	querier := new(MockAIQuerier)
	querier.On("Query", mock.Anything, "what is blender?").Return("A 3D suite.", nil)
	b := newQueryBus(t, testSnapshot(t), nil, querier)
	ctx := context.Background()

	result, err := bus.Ask[*queries.AskAIResult](ctx, b, queries.AskAIQuery{Query: "  what is blender?  "})
	require.NoError(t, err)
	assert.Equal(t, "A 3D suite.", result.Response)

	_, err = b.Ask(ctx, queries.AskAIQuery{Query: "   "})
	assert.ErrorIs(t, err, apperrors.ErrEmptyQuery)
	querier.AssertNumberOfCalls(t, "Query", 1)
}
