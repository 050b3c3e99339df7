package starwars

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	graphqlnet "github.com/benhysell/graphql-net"
	memprov "github.com/benhysell/graphql-net/internal/provider/memprov"
	"github.com/benhysell/graphql-net/internal/server"
)

type response struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Path    []any  `json:"path"`
	} `json:"errors"`
}

func newCatalogServer(t *testing.T) (*httptest.Server, *Galaxy) {
	t.Helper()
	sch, err := NewSchema()
	require.NoError(t, err)

	galaxy := NewGalaxy()
	h, err := server.New(memprov.New(), sch, func(ctx context.Context) any { return galaxy })
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, galaxy
}

func query(t *testing.T, ts *httptest.Server, body string) response {
	t.Helper()
	resp, err := http.Post(ts.URL, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestQueryAllCharacters(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"{ characters { name isDroid } }"}`)
	require.Empty(t, out.Errors)

	chars := out.Data["characters"].([]any)
	require.Len(t, chars, 6)
	first := chars[0].(map[string]any)
	require.Equal(t, "Luke Skywalker", first["name"])
	require.Equal(t, false, first["isDroid"])
}

func TestCharacterByVariable(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"query ($id: Int) { character(id: $id) { name mass } }","variables":{"id":2001}}`)
	require.Empty(t, out.Errors)

	c := out.Data["character"].(map[string]any)
	require.Equal(t, "R2-D2", c["name"])
	require.Equal(t, 32.0, c["mass"])
}

func TestMissingCharacterErrors(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"{ character(id: 9999) { name } }"}`)
	require.Len(t, out.Errors, 1)
	require.Contains(t, out.Errors[0].Message, "no elements")
	require.Equal(t, "character", out.Errors[0].Path[0])
}

func TestMissingCharacterOrNullIsNull(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"{ characterOrNull(id: 9999) { name } }"}`)
	require.Empty(t, out.Errors)
	require.Nil(t, out.Data["characterOrNull"])
}

func TestEnumArgumentFilters(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"{ charactersIn(episode: EMPIRE) { name } }"}`)
	require.Empty(t, out.Errors)

	chars := out.Data["charactersIn"].([]any)
	require.Len(t, chars, 1)
	require.Equal(t, "Lando Calrissian", chars[0].(map[string]any)["name"])
}

func TestInvalidEnumValueRejected(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"query ($e: Episode) { charactersIn(episode: $e) { name } }","variables":{"e":"SITH"}}`)
	require.NotEmpty(t, out.Errors)
}

func TestAliasedFields(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"{ hero: character(id: 1000) { name } villain: character(id: 1001) { name } }"}`)
	require.Empty(t, out.Errors)
	require.Equal(t, "Luke Skywalker", out.Data["hero"].(map[string]any)["name"])
	require.Equal(t, "Darth Vader", out.Data["villain"].(map[string]any)["name"])
}

func TestScalarCountField(t *testing.T) {
	ts, _ := newCatalogServer(t)
	out := query(t, ts, `{"query":"{ characterCount }"}`)
	require.Empty(t, out.Errors)
	require.Equal(t, 6.0, out.Data["characterCount"])
}

func TestRenameMutation(t *testing.T) {
	ts, galaxy := newCatalogServer(t)
	out := query(t, ts, `{"query":"mutation { renameCharacter(id: 1002, name: \"General Solo\") { id name } }"}`)
	require.Empty(t, out.Errors)

	renamed := out.Data["renameCharacter"].(map[string]any)
	require.Equal(t, "General Solo", renamed["name"])

	// The mutation ran against the shared root, so plain queries see it too.
	after := query(t, ts, `{"query":"{ character(id: 1002) { name } }"}`)
	require.Empty(t, after.Errors)
	require.Equal(t, "General Solo", after.Data["character"].(map[string]any)["name"])
	require.Equal(t, "General Solo", galaxy.Characters[2].Name)
}

func TestFailedMutationReportsError(t *testing.T) {
	ts, galaxy := newCatalogServer(t)
	before := len(galaxy.Characters)
	out := query(t, ts, `{"query":"mutation { renameCharacter(id: 424242, name: \"Nobody\") { name } }"}`)
	require.Len(t, out.Errors, 1)
	require.Contains(t, out.Errors[0].Message, "no character with id")
	require.Equal(t, before, len(galaxy.Characters))
}

func TestSchemaSDL(t *testing.T) {
	sch, err := NewSchema()
	require.NoError(t, err)

	sdl := graphqlnet.Render(sch)
	require.Contains(t, sdl, "enum Episode {")
	require.Contains(t, sdl, "NEWHOPE")
	require.Contains(t, sdl, "character(id: Int): Character!")
	require.Contains(t, sdl, "charactersIn(episode: Episode): [Character!]!")
	require.Contains(t, sdl, "type Mutation {")
	require.True(t, strings.Contains(sdl, "renameCharacter(id: Int, name: String): Character!"))
}
