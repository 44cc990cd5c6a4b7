package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of ContentProvider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Fetch(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// sheetDoc returns a minimal schematic with one sheet per file name
func sheetDoc(files ...string) string {
	var b strings.Builder
	b.WriteString("EESchema Schematic File Version 4\n$Descr A4 11693 8268\n$EndDescr\n")
	for i, f := range files {
		fmt.Fprintf(&b, "$Sheet\nS %d 1000 500 500\nU %08X\nF0 \"Sheet%d\" 50\nF1 %q 50\n$EndSheet\n",
			1000+i*1000, i+1, i+1, f)
	}
	b.WriteString("$EndSCHEMATC\n")
	return b.String()
}

func newTestLoader(t *testing.T, p ContentProvider, cfg *Config) *Loader {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l, err := NewLoader(p, cfg, logger)
	require.NoError(t, err)
	return l
}

func TestLoadTestdata(t *testing.T) {
	l := newTestLoader(t, FSProvider{Root: "../../../testdata/legacy"}, nil)

	root, err := l.Load(context.Background(), "root.sch")
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	assert.Equal(t, "power.sch", root.Children[0].Name)
	assert.Equal(t, filepath.Join("io", "uart.sch"), root.Children[1].Name)
	assert.Empty(t, root.Errors())

	uart := root.Children[1]
	require.NotNil(t, uart.Schematic)
	assert.Equal(t, "UART", uart.Sheet.Name)
	assert.Equal(t, "io", uart.Context.Dir)
	assert.NotNil(t, uart.Schematic.Component("U2"))

	var names []string
	root.Walk(func(n *Node, depth int) {
		names = append(names, fmt.Sprintf("%d:%s", depth, n.Name))
	})
	assert.Equal(t, []string{"0:root.sch", "1:power.sch", "1:" + filepath.Join("io", "uart.sch")}, names)
}

func TestLoadChildFailureIsLocal(t *testing.T) {
	p := new(MockProvider)
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc("a.sch", "b.sch", "c.sch"), nil)
	p.On("Fetch", mock.Anything, "a.sch").Return("", fs.ErrNotExist)
	p.On("Fetch", mock.Anything, "b.sch").Return(sheetDoc(), nil)
	p.On("Fetch", mock.Anything, "c.sch").Return("EESchema Schematic File Version 4\n$Comp\n", nil)

	root, err := newTestLoader(t, p, nil).Load(context.Background(), "root.sch")
	require.NoError(t, err)
	require.Len(t, root.Children, 3)

	assert.ErrorIs(t, root.Children[0].Err, fs.ErrNotExist)
	assert.Nil(t, root.Children[0].Schematic)
	assert.NoError(t, root.Children[1].Err)
	assert.NotNil(t, root.Children[1].Schematic)
	assert.Error(t, root.Children[2].Err)

	failed := root.Errors()
	require.Len(t, failed, 2)
	assert.Equal(t, "a.sch", failed[0].Name)
	assert.Equal(t, "c.sch", failed[1].Name)
	p.AssertExpectations(t)
}

func TestLoadCycle(t *testing.T) {
	p := new(MockProvider)
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc("child.sch"), nil).Once()
	p.On("Fetch", mock.Anything, "child.sch").Return(sheetDoc("root.sch", "leaf.sch"), nil).Once()
	p.On("Fetch", mock.Anything, "leaf.sch").Return(sheetDoc(), nil).Once()

	root, err := newTestLoader(t, p, nil).Load(context.Background(), "root.sch")
	require.NoError(t, err)

	child := root.Children[0]
	require.NoError(t, child.Err)
	require.Len(t, child.Children, 2)
	assert.ErrorIs(t, child.Children[0].Err, ErrCycle)
	assert.NoError(t, child.Children[1].Err)
	p.AssertExpectations(t)
}

func TestLoadSelfReference(t *testing.T) {
	p := new(MockProvider)
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc("root"), nil).Once()

	root, err := newTestLoader(t, p, nil).Load(context.Background(), "root.sch")
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.ErrorIs(t, root.Children[0].Err, ErrCycle)
}

func TestLoadMaxDepth(t *testing.T) {
	p := new(MockProvider)
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc("a.sch"), nil)
	p.On("Fetch", mock.Anything, "a.sch").Return(sheetDoc("b.sch"), nil)

	root, err := newTestLoader(t, p, &Config{MaxDepth: 1}).Load(context.Background(), "root.sch")
	require.NoError(t, err)

	a := root.Children[0]
	require.NoError(t, a.Err)
	require.Len(t, a.Children, 1)
	assert.ErrorIs(t, a.Children[0].Err, ErrMaxDepth)
	p.AssertNotCalled(t, "Fetch", mock.Anything, "b.sch")
}

func TestLoadUsesCache(t *testing.T) {
	p := new(MockProvider)
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc("shared.sch"), nil).Once()
	p.On("Fetch", mock.Anything, "shared.sch").Return(sheetDoc(), nil).Once()

	l := newTestLoader(t, p, nil)
	first, err := l.Load(context.Background(), "root.sch")
	require.NoError(t, err)
	second, err := l.Load(context.Background(), "root.sch")
	require.NoError(t, err)

	assert.Same(t, first.Schematic, second.Schematic)
	assert.Same(t, first.Children[0].Schematic, second.Children[0].Schematic)
	p.AssertExpectations(t)

	l.Purge()
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc(), nil).Once()
	third, err := l.Load(context.Background(), "root.sch")
	require.NoError(t, err)
	assert.Empty(t, third.Children)
}

func TestLoadManySiblings(t *testing.T) {
	var files []string
	p := new(MockProvider)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("s%02d.sch", i)
		files = append(files, name)
		p.On("Fetch", mock.Anything, name).Return(sheetDoc(), nil).Once()
	}
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc(files...), nil).Once()

	root, err := newTestLoader(t, p, &Config{MaxDepth: 4, Concurrency: 3}).Load(context.Background(), "root.sch")
	require.NoError(t, err)
	require.Len(t, root.Children, len(files))
	for i, c := range root.Children {
		assert.Equal(t, files[i], c.Name)
		assert.NoError(t, c.Err)
	}
	p.AssertExpectations(t)
}

func TestLoadRootFailure(t *testing.T) {
	p := new(MockProvider)
	p.On("Fetch", mock.Anything, "root.sch").Return("", fs.ErrPermission)

	root, err := newTestLoader(t, p, nil).Load(context.Background(), "root.sch")
	assert.Nil(t, root)
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestLoadCancelled(t *testing.T) {
	p := new(MockProvider)
	p.On("Fetch", mock.Anything, "root.sch").Return(sheetDoc("a.sch"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root, err := newTestLoader(t, p, nil).Load(ctx, "root.sch")
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, root)
	assert.ErrorIs(t, root.Children[0].Err, context.Canceled)
	p.AssertNotCalled(t, "Fetch", mock.Anything, "a.sch")
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{MaxDepth: 3}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 1, cfg.CacheSize)

	assert.Error(t, (&Config{MaxDepth: -1}).Validate())

	_, err := NewLoader(new(MockProvider), &Config{MaxDepth: -1}, nil)
	assert.Error(t, err)
}
