package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileOrFail(t *testing.T, source, dest string) Compiled {
	t.Helper()
	c, err := Compile(source, dest)
	require.NoError(t, err)
	return c
}

func Test_Match_firstWins(t *testing.T) {
	rules := []Compiled{
		compileOrFail(t, "/old", "/first"),
		compileOrFail(t, "/old", "/second"),
	}
	dest, err := Match("/old", rules)
	require.NoError(t, err)
	assert.Equal(t, "/first", dest)
}

func Test_Match_noRuleMatches(t *testing.T) {
	rules := []Compiled{compileOrFail(t, "/old", "/new")}
	_, err := Match("/nope", rules)
	require.Error(t, err)
	var nm *NoMatchError
	assert.ErrorAs(t, err, &nm)
}

func Test_Match_numberedCaptureSubstitution(t *testing.T) {
	rules := []Compiled{compileOrFail(t, "/archive/(.*)", "/new/$1")}
	dest, err := Match("/archive/2020/report", rules)
	require.NoError(t, err)
	assert.Equal(t, "/new/2020/report", dest)
}

func Test_Match_bracedCaptureSubstitution(t *testing.T) {
	rules := []Compiled{compileOrFail(t, "/archive/(.*)/(.*)", "/new/${2}/${1}")}
	dest, err := Match("/archive/2020/report", rules)
	require.NoError(t, err)
	assert.Equal(t, "/new/report/2020", dest)
}

func Test_Match_namedParamSubstitution(t *testing.T) {
	rules := []Compiled{compileOrFail(t, "/users/:id", "/profile/:id")}
	dest, err := Match("/users/42", rules)
	require.NoError(t, err)
	assert.Equal(t, "/profile/42", dest)
}

func Test_Match_unmatchedNamedParamLeftLiteral(t *testing.T) {
	rules := []Compiled{compileOrFail(t, "/users/:id", "/profile/:id/:missing")}
	dest, err := Match("/users/42", rules)
	require.NoError(t, err)
	assert.Equal(t, "/profile/42/:missing", dest)
}

func Test_Match_anchoredWholePath(t *testing.T) {
	rules := []Compiled{compileOrFail(t, "/blog/*", "/posts/*")}
	_, err := Match("/blog/hello/world", rules)
	assert.Error(t, err, "glob * must not cross path segments")
}
