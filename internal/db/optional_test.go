package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalize(t *testing.T) {
	assert.False(t, Normalize("").Valid)
	assert.False(t, Normalize(int64(0)).Valid)
	assert.False(t, Normalize(time.Time{}).Valid)

	s := Normalize("notes")
	assert.True(t, s.Valid)
	assert.Equal(t, "notes", s.V)

	assert.False(t, Some("").Normalized().Valid)
	assert.True(t, Some(int64(3)).Normalized().Valid)
	assert.False(t, None[string]().Normalized().Valid)
}

func TestOptional_Accessors(t *testing.T) {
	v, ok := Some(int64(7)).Get()
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	_, ok = None[int64]().Get()
	assert.False(t, ok)

	assert.Equal(t, "", None[string]().OrZero())
	assert.Equal(t, "", None[int64]().String())
	assert.Equal(t, "7", Some(int64(7)).String())
	assert.Equal(t, "2026-10-15 09:30:00", Some(time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)).String())
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var in IssueInput
	err := json.Unmarshal([]byte(`{
		"project_id": 1,
		"title": "Fix login bug",
		"description": null,
		"created_by": "7",
		"assigned_to": ""
	}`), &in)
	require.NoError(t, err)

	assert.False(t, in.Description.Valid)
	assert.False(t, in.AssignedTo.Valid, "empty string means no assignee")
	require.True(t, in.CreatedBy.Valid, "numeric strings are accepted")
	assert.Equal(t, int64(7), in.CreatedBy.V)

	var missing IssueInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &missing))
	assert.False(t, missing.AssignedTo.Valid)
	assert.False(t, missing.CreatedBy.Valid)
}

func TestOptional_UnmarshalJSON_Timestamps(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2026-10-20"`, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)},
		{`"2026-10-20 14:05:00"`, time.Date(2026, 10, 20, 14, 5, 0, 0, time.UTC)},
		{`"2026-10-20T14:05:00Z"`, time.Date(2026, 10, 20, 14, 5, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var o Optional[time.Time]
		require.NoError(t, json.Unmarshal([]byte(tt.in), &o), tt.in)
		require.True(t, o.Valid, tt.in)
		assert.True(t, tt.want.Equal(o.V), "%s parsed as %v", tt.in, o.V)
	}

	var o Optional[time.Time]
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &o))
}

func TestOptional_UnmarshalJSON_Invalid(t *testing.T) {
	var n Optional[int64]
	assert.Error(t, json.Unmarshal([]byte(`"seven"`), &n))
	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}

func TestOptional_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Optional[int64]  `json:"a"`
		B Optional[string] `json:"b"`
	}{A: None[int64](), B: Some("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":"x"}`, string(data))
}

func TestOptional_MarshalYAML(t *testing.T) {
	data, err := yaml.Marshal(struct {
		A Optional[int64]     `yaml:"a"`
		B Optional[time.Time] `yaml:"b"`
	}{A: None[int64](), B: Some(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))})
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Nil(t, back["a"])
	assert.Contains(t, string(data), "2026-01-02 03:04:05")
}

func TestOptional_ValueAndScan(t *testing.T) {
	v, err := None[string]().Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	ts := time.Date(2026, 10, 15, 9, 30, 45, 999, time.UTC)
	v, err = Some(ts).Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15 09:30:45", v)

	var o Optional[time.Time]
	require.NoError(t, o.Scan([]byte("2026-10-15 09:30:45")))
	assert.True(t, o.Valid)
	assert.True(t, ts.Truncate(time.Second).Equal(o.V))

	require.NoError(t, o.Scan(nil))
	assert.False(t, o.Valid)

	require.NoError(t, o.Scan(ts))
	assert.True(t, o.Valid)

	var n Optional[int64]
	require.NoError(t, n.Scan([]byte("360")))
	assert.Equal(t, int64(360), n.V)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2026-10-15 09:30:00",
		"2026-10-15T09:30:00Z",
		"2026-10-15T11:30:00+02:00",
		"2026-10-15T09:30:00",
	} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
		assert.Equal(t, time.UTC, got.Location(), in)
	}

	_, err := ParseTimestamp("15/10/2026")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2026, 10, 15, 11, 30, 0, 900_000_000, loc)
	assert.Equal(t, "2026-10-15 09:30:00", FormatTimestamp(in))
}
