package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabled/internal/compiler"
	"github.com/roach88/tabled/internal/source"
)

func family(args ...string) []string {
	return append([]string{"query", "--schema", fixture("family.cue"), "--program", fixture("family.mgl")}, args...)
}

func decodeQuery(t *testing.T, stdout string) (CLIResponse, QueryResult) {
	t.Helper()
	var raw struct {
		CLIResponse
		Data QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &raw))
	return raw.CLIResponse, raw.Data
}

func TestQuery_Text(t *testing.T) {
	stdout, _, err := execute(t, family("ancestor(/alice, X)")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ancestor(/alice, X): true")
	assert.Contains(t, stdout, "X = bob")
	assert.Contains(t, stdout, "X = carol")
	assert.Contains(t, stdout, "X = dave")
}

func TestQuery_JSON(t *testing.T) {
	stdout, _, err := execute(t, family("--format", "json", "trusted(/bob)", "fib(15, F)")...)
	require.NoError(t, err)

	resp, result := decodeQuery(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, resp.RunID, result.RunID)
	assert.Equal(t, 4, result.Facts)
	assert.Equal(t, 5, result.Rules)
	require.Len(t, result.Answers, 2)
	assert.Equal(t, "true", result.Answers[0].Outcome)
	assert.Equal(t, int64(2), result.Answers[1].Seq)
	require.Len(t, result.Answers[1].Bindings, 1)
	assert.EqualValues(t, 610, result.Answers[1].Bindings[0]["F"])
}

func TestQuery_NotTrueExitsOne(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		outcome string
	}{
		{"false", family("ancestor(/dave, /alice)"), "ancestor(/dave, /alice): false"},
		{"unknown", []string{"query", "-s", fixture("game.cue"), "-p", fixture("game.mgl"), "win(/a)"}, "win(/a): unknown"},
		{"one of several", family("trusted(/bob)", "trusted(/carol)"), "trusted(/carol): false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, stdout, tt.outcome)
		})
	}
}

func TestQuery_CommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing program", []string{"query", "-p", "nope.mgl", "p(/a)"}, ErrCodeNotFound},
		{"missing schema", []string{"query", "-s", "nope.cue", "p(/a)"}, ErrCodeNotFound},
		{"bad query", family("ancestor("), compiler.ErrCodeParse},
		{"unknown relation", family("sibling(/a, X)"), compiler.ErrCodeUnknownRelation},
		{"import without db", family("--import", "parent=t(a,b)", "trusted(/bob)"), ErrCodeSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, "Error ["+tt.code+"]")
		})
	}
}

func seedStaff(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staff.db")
	db, err := source.Open(path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE staff (name TEXT, team TEXT)`,
		`INSERT INTO staff VALUES ('ann', 'red'), ('bo', 'red'), ('cy', 'blue')`,
	} {
		_, err := db.SQL().Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestQuery_ImportAndRecord(t *testing.T) {
	path := seedStaff(t)
	stdout, _, err := execute(t, "query", "--format", "json",
		"-s", fixture("roster.cue"), "-p", fixture("roster.mgl"),
		"--db", path, "--import", "works_in=staff(name, team)", "--record",
		"colleague(/ann, Y)")
	require.NoError(t, err)

	_, result := decodeQuery(t, stdout)
	assert.Equal(t, 3, result.Facts)
	require.Len(t, result.Answers, 1)
	assert.Equal(t, []map[string]any{{"Y": "bo"}}, result.Answers[0].Bindings)

	db, err := source.Open(path)
	require.NoError(t, err)
	defer db.Close()
	logged, err := db.Answers(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "colleague(/ann, Y)", logged[0].Query)
	assert.Equal(t, "true", logged[0].Outcome)
}

func TestQuery_ImportErrors(t *testing.T) {
	path := seedStaff(t)
	for _, spec := range []string{"works_in", "works_in=missing(name, team)", "works_in=staff(name)"} {
		t.Run(spec, func(t *testing.T) {
			_, _, err := execute(t, "query", "-s", fixture("roster.cue"), "-p", fixture("roster.mgl"),
				"--db", path, "--import", spec, "colleague(/ann, Y)")
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestQuery_Metrics(t *testing.T) {
	_, stderr, err := execute(t, family("--metrics", "ancestor(/alice, X)")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, `tabled_runs_total{outcome="ok"} 1`)
	assert.Contains(t, stderr, "tabled_run_duration_seconds_count 1")
}

func TestParseImport(t *testing.T) {
	s, err := compiler.LoadSchema(fixture("roster.cue"))
	require.NoError(t, err)

	table, err := ParseImport(s, " works_in = staff( name ,team ) ")
	require.NoError(t, err)
	assert.Equal(t, "staff", table.Name)
	assert.Equal(t, []string{"name", "team"}, table.Columns)
	assert.Equal(t, s.Relations["works_in"], table.Relation)

	_, err = ParseImport(s, "works_in:staff")
	assert.ErrorContains(t, err, "invalid import")
	_, err = ParseImport(s, "plus=staff(a,b,c)")
	assert.ErrorContains(t, err, "not declared")
}
