package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-outlook/internal/config"
	"github.com/couchcryptid/rainfall-outlook/internal/domain"
	"github.com/couchcryptid/rainfall-outlook/internal/observability"
	"github.com/couchcryptid/rainfall-outlook/internal/pipeline"
)

// stubSearcher answers every query with the Pune forecast and records what it ran.
type stubSearcher struct {
	mu      sync.Mutex
	queries []string
}

func (s *stubSearcher) Run(_ context.Context, query string) (domain.ForecastViewModel, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	vm, _ := puneReady().Forecast()
	return vm, nil
}

func (s *stubSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func newTestApp(t *testing.T, searcher pipeline.Searcher, opts pipeline.Options) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &app{
		cfg:        &config.Config{ShutdownTimeout: time.Second},
		logger:     logger,
		trigger:    opts.Trigger,
		controller: pipeline.NewController(searcher, opts, logger, observability.NewMetricsForTesting()),
	}
}

type renderedState struct {
	Phase string          `json:"phase"`
	Query string          `json:"query"`
	Error json.RawMessage `json:"error"`
}

// runWatch pipes input through watch and returns every JSON line rendered.
func runWatch(t *testing.T, a *app, input string) []renderedState {
	t.Helper()
	var out bytes.Buffer
	r, err := newRenderer(&out, outputJSON)
	require.NoError(t, err)
	a.controller.Subscribe(r.Render)

	a.watch(context.Background(), strings.NewReader(input), r)
	a.shutdown()

	var states []renderedState
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var s renderedState
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &s), scanner.Text())
		states = append(states, s)
	}
	return states
}

func TestWatch_DebouncedLastLineRunsAtEOF(t *testing.T) {
	searcher := &stubSearcher{}
	a := newTestApp(t, searcher, pipeline.Options{
		Trigger:  pipeline.TriggerOnChange,
		Debounce: 50 * time.Millisecond,
	})

	states := runWatch(t, a, "Pune\n")

	assert.Equal(t, []string{"Pune"}, searcher.Queries())
	require.Len(t, states, 2)
	assert.Equal(t, "loading", states[0].Phase)
	assert.Equal(t, "ready", states[1].Phase)
	assert.Equal(t, "Pune", states[1].Query)
}

func TestWatch_DebounceCollapsesEdits(t *testing.T) {
	searcher := &stubSearcher{}
	a := newTestApp(t, searcher, pipeline.Options{
		Trigger:  pipeline.TriggerOnChange,
		Debounce: 200 * time.Millisecond,
	})

	states := runWatch(t, a, "Mum\nMumba\nMumbai\n")

	assert.Equal(t, []string{"Mumbai"}, searcher.Queries())
	require.NotEmpty(t, states)
	assert.Equal(t, "Mumbai", states[len(states)-1].Query)
}

func TestWatch_SubmitMode(t *testing.T) {
	searcher := &stubSearcher{}
	a := newTestApp(t, searcher, pipeline.Options{Trigger: pipeline.TriggerOnSubmit})

	states := runWatch(t, a, "\nPune\n")

	require.NotEmpty(t, states)
	assert.Empty(t, states[0].Phase)
	assert.NotEmpty(t, states[0].Error, "blank line reports an input error")
	last := states[len(states)-1]
	assert.Equal(t, "ready", last.Phase)
	assert.Equal(t, "Pune", last.Query)
	assert.Equal(t, []string{"Pune"}, searcher.Queries())
}
