package catalog_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CoursePortal/internal/catalog"
	"CoursePortal/internal/web"
)

func newPortalTS(t *testing.T) (*httptest.Server, *catalog.FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	store := catalog.NewFileStore(path)

	render, err := web.NewRenderer()
	require.NoError(t, err)

	s := &catalog.Server{
		Store:  store,
		Log:    zap.NewNop(),
		Render: render,
		Flash:  web.NewFlash("test-secret"),
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "portal",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, store, path
}

// newBrowser returns a client that carries session cookies across
// requests so flash messages survive the redirect.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func get(t *testing.T, c *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, c *http.Client, url string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(url, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func courseForm(name, code, instructor string) url.Values {
	return url.Values{
		"name":          {name},
		"code":          {code},
		"instructor":    {instructor},
		"semester":      {"Fall 2026"},
		"schedule":      {"Mon/Wed 10:00"},
		"classroom":     {"A-204"},
		"prerequisites": {"None"},
		"grading":       {"Exams"},
		"description":   {"A course."},
	}
}

func TestPortal_HomeAndProbes(t *testing.T) {
	ts, _, _ := newPortalTS(t)
	c := newBrowser(t)

	status, body := get(t, c, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Course Info Portal")

	status, _ = get(t, c, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get(t, c, ts.URL+"/readyz")
	assert.Equal(t, http.StatusOK, status)
}

func TestPortal_AddListRemoveRoundTrip(t *testing.T) {
	ts, _, _ := newPortalTS(t)
	c := newBrowser(t)

	// add lands on the catalog page with a success flash
	status, body := postForm(t, c, ts.URL+"/add", courseForm("Algorithms", "CS301", "Dr. Knuth"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "added successfully!")
	assert.Contains(t, body, "Algorithms")

	// the course is listed and has a detail page
	_, body = get(t, c, ts.URL+"/catalog")
	assert.Contains(t, body, "CS301")

	status, body = get(t, c, ts.URL+"/course/CS301")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Dr. Knuth")
	assert.Contains(t, body, "Mon/Wed 10:00")

	// remove flashes the course name and delists it
	_, body = postForm(t, c, ts.URL+"/remove/CS301", nil)
	assert.Contains(t, body, "removed successfully!")
	assert.Contains(t, body, "Algorithms")

	_, body = get(t, c, ts.URL+"/catalog")
	assert.NotContains(t, body, "CS301")

	// detail of the removed course redirects with a not-found flash
	_, body = get(t, c, ts.URL+"/course/CS301")
	assert.Contains(t, body, "No course found with code")
	assert.Contains(t, body, "CS301")
}

func TestPortal_AddValidation(t *testing.T) {
	ts, store, _ := newPortalTS(t)
	c := newBrowser(t)

	form := courseForm("", "CS101", "Dr. X")
	_, body := postForm(t, c, ts.URL+"/add", form)

	// exactly one missing label is reported
	assert.Contains(t, body, "Error: The following fields are required: Course Name</div>")

	// nothing was persisted
	courses, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestPortal_AddValidationAllMissing(t *testing.T) {
	ts, _, _ := newPortalTS(t)
	c := newBrowser(t)

	// whitespace-only counts as missing
	form := courseForm("   ", "", "\t")
	_, body := postForm(t, c, ts.URL+"/add", form)
	assert.Contains(t, body,
		"Error: The following fields are required: Course Name, Course Code, Instructor")
}

func TestPortal_AddAppliesDefaults(t *testing.T) {
	ts, store, _ := newPortalTS(t)
	c := newBrowser(t)

	// only the required fields are submitted at all
	form := url.Values{
		"name":       {"Databases"},
		"code":       {"CS240"},
		"instructor": {"Dr. Codd"},
	}
	postForm(t, c, ts.URL+"/add", form)

	course, ok, err := store.Find(context.Background(), "CS240")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", course.Semester)
	assert.Equal(t, "", course.Schedule)
	assert.Equal(t, "", course.Classroom)
	assert.Equal(t, "None", course.Prerequisites)
	assert.Equal(t, "Not specified", course.Grading)
	assert.Equal(t, "No description provided", course.Description)
}

func TestPortal_AddDuplicateCode(t *testing.T) {
	ts, store, _ := newPortalTS(t)
	c := newBrowser(t)

	postForm(t, c, ts.URL+"/add", courseForm("Algorithms", "CS301", "Dr. Knuth"))
	_, body := postForm(t, c, ts.URL+"/add", courseForm("Other", "CS301", "Dr. Y"))
	assert.Contains(t, body, "already exists")

	courses, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestPortal_RemoveAbsent(t *testing.T) {
	ts, _, _ := newPortalTS(t)
	c := newBrowser(t)

	_, body := postForm(t, c, ts.URL+"/remove/NOPE", nil)
	assert.Contains(t, body, "No course found with code")
	assert.Contains(t, body, "NOPE")
}

func TestPortal_RedirectTargets(t *testing.T) {
	ts, _, _ := newPortalTS(t)

	// no jar, no redirect following: check the raw handler responses
	c := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := c.PostForm(ts.URL+"/add", courseForm("Algorithms", "CS301", "Dr. Knuth"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/catalog", resp.Header.Get("Location"))

	resp, err = c.PostForm(ts.URL+"/add", courseForm("", "", ""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/add", resp.Header.Get("Location"))

	resp, err = c.Get(ts.URL + "/course/NOPE")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/catalog", resp.Header.Get("Location"))
}

func TestPortal_StoreFailureIsServerError(t *testing.T) {
	ts, _, path := newPortalTS(t)
	c := newBrowser(t)

	// corrupt the persisted file behind the store's back
	postForm(t, c, ts.URL+"/add", courseForm("Algorithms", "CS301", "Dr. Knuth"))
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	status, body := get(t, c, ts.URL+"/catalog")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "Something went wrong")
}
