// internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rlfscan/internal/capture"
	"github.com/xkilldash9x/rlfscan/internal/config"
	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/failures"
	"github.com/xkilldash9x/rlfscan/internal/layouttest"
	"github.com/xkilldash9x/rlfscan/internal/ranges"
)

// -- Mock Implementations --

type mockStore struct {
	mu    sync.Mutex
	saved []*Result
	err   error
}

func (m *mockStore) SaveRun(ctx context.Context, res *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, res)
	return nil
}

func fromPages(pages map[int]*dom.Element) capture.Capturer {
	return capture.CapturerFunc(func(ctx context.Context, width int) (*dom.Element, error) {
		el, ok := pages[width]
		if !ok {
			return nil, capture.ErrNoFixture
		}
		return el, nil
	})
}

func testConfig(min, max int) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.SetAnalysisWidths(min, max, 1)
	cfg.SetBrowserConcurrency(2)
	return cfg
}

// -- Test Suite --

func TestEngine_RunDetectsCollision(t *testing.T) {
	store := &mockStore{}
	e := New(testConfig(400, 401), zaptest.NewLogger(t), store)

	res, err := e.Run(context.Background(), "https://example.test/", fromPages(layouttest.Collision()))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Run)
	assert.Equal(t, "https://example.test/", res.Webpage)
	assert.Equal(t, []int{400, 401}, res.Widths)
	require.NotNil(t, res.Graph)
	assert.True(t, ranges.Of(ranges.New(400, 401)).Equal(res.Graph.Widths()))

	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, failures.Collision, f.Kind)
	assert.Equal(t, 1, f.ID)
	assert.Equal(t, ranges.New(400, 400), f.Range)
	assert.Equal(t, map[failures.Kind]int{failures.Collision: 1}, res.Counts())

	require.Len(t, store.saved, 1)
	assert.Same(t, res, store.saved[0])
}

func TestEngine_RunNumbersAndIDsPerRun(t *testing.T) {
	e := New(testConfig(400, 401), nil, nil)
	c := fromPages(layouttest.Collision())

	first, err := e.Run(context.Background(), "a", c)
	require.NoError(t, err)
	second, err := e.Run(context.Background(), "b", c)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Run)
	assert.Equal(t, 2, second.Run)
	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, second.Failures, 1)
	assert.Equal(t, 1, second.Failures[0].ID, "each run allocates IDs from 1")
}

func TestEngine_RunCaptureError(t *testing.T) {
	e := New(testConfig(400, 402), zaptest.NewLogger(t), nil)

	_, err := e.Run(context.Background(), "page", fromPages(layouttest.Collision()))
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrNoFixture)
	assert.Contains(t, err.Error(), "capture failed for page")
}

func TestEngine_RunStoreError(t *testing.T) {
	boom := errors.New("database unavailable")
	e := New(testConfig(400, 401), zaptest.NewLogger(t), &mockStore{err: boom})

	res, err := e.Run(context.Background(), "page", fromPages(layouttest.Collision()))
	require.ErrorIs(t, err, boom)
	require.NotNil(t, res, "the result survives a persistence failure")
	assert.Len(t, res.Failures, 1)
}

func TestEngine_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(testConfig(400, 401), nil, nil)

	_, err := e.Run(ctx, "page", fromPages(layouttest.Collision()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildGraph(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := BuildGraph(nil, GraphOptions{}, nil)
		assert.ErrorIs(t, err, ErrNoSnapshots)
	})

	t.Run("fuses every width", func(t *testing.T) {
		g, err := BuildGraph(layouttest.Wrapping(), GraphOptions{
			Tolerances: config.NewDefaultConfig().Analysis().Tolerances,
			DOM:        dom.DefaultOptions(),
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.True(t, ranges.Of(ranges.New(598, 600)).Equal(g.Widths()))
		_, ok := g.Node(layouttest.Div3)
		assert.True(t, ok)
	})

	t.Run("missing body", func(t *testing.T) {
		_, err := BuildGraph(map[int]*dom.Element{400: layouttest.El("DIV", 0, 0, 10, 10)}, GraphOptions{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "width 400")
	})
}

func TestEngine_RunWidths(t *testing.T) {
	e := New(testConfig(320, 1400), zaptest.NewLogger(t), nil)

	res, err := e.RunWidths(context.Background(), "fixtures", fromPages(layouttest.Wrapping()), []int{598, 599, 600})
	require.NoError(t, err)
	assert.Equal(t, []int{598, 599, 600}, res.Widths)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, failures.Wrapping, res.Failures[0].Kind)

	_, err = e.RunWidths(context.Background(), "fixtures", fromPages(layouttest.Wrapping()), nil)
	assert.ErrorIs(t, err, ErrNoSnapshots)
}
