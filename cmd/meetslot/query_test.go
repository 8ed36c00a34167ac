package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"meetslot/internal/api"
	"meetslot/internal/apperr"
)

const scenario = `{
  "events": [
    {"title": "review", "start": 600, "end": 900, "attendees": ["alice"]}
  ],
  "request": {"duration": 30, "attendees": ["alice"]}
}`

func TestRunQuery_Table(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runQuery(strings.NewReader(scenario), &out, false))

	s := out.String()
	require.Contains(t, s, "00:00-10:00")
	require.Contains(t, s, "15:00-24:00")
	require.Contains(t, s, "tier: everyone")
}

func TestRunQuery_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runQuery(strings.NewReader(scenario), &out, true))

	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Slots, 2)
	require.Equal(t, 900, resp.Slots[1].Start)
}

func TestRunQuery_Errors(t *testing.T) {
	require.Error(t, runQuery(strings.NewReader("{"), &bytes.Buffer{}, false))

	err := runQuery(strings.NewReader(`{"events":[],"request":{"duration":-1}}`), &bytes.Buffer{}, false)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
