/*
scenarios_test.go - Unit tests for demo scenario endpoints

PURPOSE:
	Tests that loading a scenario replaces the database contents and that
	the current scenario is tracked across load and reset.
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/sales-engine/demo"
)

func TestListScenarios(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(demo.Scenarios))
}

func TestLoadScenario_Seed(t *testing.T) {
	// GIVEN: A database with an unrelated client
	// WHEN: Loading the seed scenario
	// THEN: Only the seed data remains and the scenario is current

	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/clients", `{"name":"Zoé"}`).Code)

	rec := s.do(http.MethodPost, "/api/scenarios/load", `{"scenario_id":"seed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/clients", "")
	assert.Len(t, decode[[]map[string]any](t, rec), 10)

	rec = s.do(http.MethodGet, "/api/scenarios/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, demo.ScenarioSeed, decode[ScenarioDTO](t, rec).ID)
}

func TestLoadScenario_Unknown(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", `{"scenario_id":"black-friday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/scenarios/load", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetDatabase(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/scenarios/load", `{"scenario_id":"seed"}`).Code)

	rec := s.do(http.MethodPost, "/api/scenarios/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/sales", "")
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(http.MethodGet, "/api/scenarios/current", "")
	assert.Equal(t, "null", string(rec.Body.Bytes()[:4]))
}
