package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/dockbridge/scenario"
)

const basicScenario = "../../scenario/testdata/basic.yaml"

func TestRunPrintsDebugSurface(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"run", basicScenario})
	require.NoError(t, rootCmd.Execute())

	text := out.String()
	assert.Contains(t, text, "== basic dock and undock")
	assert.Contains(t, text, "-- step 0: dock dockA dockB")
	assert.Contains(t, text, "1 connections")
	assert.Contains(t, text, "[pumpA] Entity")
	assert.Contains(t, text, "[dockA] Grid")
}

func TestSnapshotWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.png")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"snapshot", "--steps", "1", basicScenario, path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "after 1 steps")
	assert.FileExists(t, path)
}

func TestLayoutPlacesGridsSideBySide(t *testing.T) {
	sc, err := scenario.Load(basicScenario)
	require.NoError(t, err)
	r, err := scenario.NewRunner(sc, nil)
	require.NoError(t, err)
	require.NoError(t, r.Step(sc.Steps[0]))

	l := newLayout(r)
	require.Len(t, l.panels, 2)
	assert.Equal(t, l.panels[0].width()+panelGap, l.panels[1].offset)

	dockA, _ := r.Entity("dockA")
	dockB, _ := r.Entity("dockB")
	ca, ra, ok := l.cell(r, dockA)
	require.True(t, ok)
	cb, rb, ok := l.cell(r, dockB)
	require.True(t, ok)
	assert.Equal(t, ra, rb)
	assert.Less(t, ca, cb)

	assert.Len(t, l.links(r), 1)

	var buf bytes.Buffer
	require.NoError(t, writePNG(r, &buf))
	assert.Equal(t, []byte("\x89PNG"), buf.Bytes()[:4])
}

func TestDebugRoutes(t *testing.T) {
	s, err := openSession(basicScenario, io.Discard)
	require.NoError(t, err)
	defer s.close()

	more, err := s.next()
	require.True(t, more)
	require.NoError(t, err)

	router := s.routes()
	get := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	rec := get(http.MethodGet, "/debug/pairs")
	require.Equal(t, http.StatusOK, rec.Code)
	var pairs []pairView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
	assert.Equal(t, []pairView{{DockA: "dockA", DockB: "dockB", Edges: 1}}, pairs)

	rec = get(http.MethodGet, "/debug/entity/pumpA")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dock connections")

	assert.Equal(t, http.StatusNotFound, get(http.MethodGet, "/debug/entity/nobody").Code)
	assert.Equal(t, http.StatusOK, get(http.MethodPost, "/debug/refresh").Code)

	rec = get(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dockbridge_")

	rec = get(http.MethodGet, "/debug/summary")
	assert.Contains(t, rec.Body.String(), "1 connections")
}

func TestRunRejectsHTTPWithManyScenarios(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"run", "--http-addr", "127.0.0.1:0", basicScenario, basicScenario})
	assert.Error(t, rootCmd.Execute())
	httpAddr = ""
}

func TestRunPlaysScenariosConcurrently(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"run", basicScenario, "../../scenario/testdata/late_anchor.yaml"})
	require.NoError(t, rootCmd.Execute())

	text := out.String()
	first := strings.Index(text, "== basic dock and undock")
	second := strings.Index(text, "== late anchored edge tile node")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first, "output follows argument order")
}
