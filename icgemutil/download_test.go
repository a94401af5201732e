/*
Copyright © 2018 the icgem authors.
This file is part of icgem.

icgem is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icgem is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icgem.  If not, see <http://www.gnu.org/licenses/>.
*/

package icgemutil

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/icgem"
)

func testLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func TestMaybeDownloadLocal(t *testing.T) {
	if k, err := maybeDownload(context.Background(), "/dev/null", testLogger()); err != nil || k != "/dev/null" {
		t.Errorf("Expected /dev/null, got %s (%v)", k, err)
	}
}

func TestMaybeDownloadLocal2(t *testing.T) {
	if k, err := maybeDownload(context.Background(), "/blah/test/", testLogger()); err != nil || k != "/blah/test/" {
		t.Errorf("Expected /blah/test/, got %s (%v)", k, err)
	}
}

func TestMaybeDownloadRemote(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeTestGrid(t, dir)
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	k, err := maybeDownload(context.Background(), srv.URL+"/grid.gdf", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	if !strings.HasSuffix(k, "grid.gdf") || k == filepath.Join(dir, "grid.gdf") {
		t.Errorf("Expected tempDir/grid.gdf, got %s", k)
	}
	b, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != testGridText() {
		t.Error("downloaded file differs")
	}
}

func TestReadGridRemovesDownload(t *testing.T) {
	resetConfig()
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeTestGrid(t, dir)
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	tmp, err := ioutil.TempDir("", "icgemtmp")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmp)
	oldTmp := os.Getenv("TMPDIR")
	os.Setenv("TMPDIR", tmp)
	defer os.Setenv("TMPDIR", oldTmp)

	if _, err := readGrid(srv.URL + "/grid.gdf"); err != nil {
		t.Fatal(err)
	}
	files, err := ioutil.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("download directory %s was not removed", filepath.Join(tmp, files[0].Name()))
	}
}

func TestMaybeDownloadRemoteNotFound(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := maybeDownload(context.Background(), srv.URL+"/missing.gdf", testLogger()); err == nil {
		t.Error("missing file should fail")
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("client error was requested %d times", n)
	}
}

func TestMaybeDownloadRemoteRetry(t *testing.T) {
	var requests int32
	text := testGridText()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(text))
	}))
	defer srv.Close()

	logger, hook := logtest.NewNullLogger()
	k, err := maybeDownload(context.Background(), srv.URL+"/grid.gdf", logger)
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Errorf("have %d requests, want 2", n)
	}
	if len(hook.Entries) != 1 || hook.LastEntry().Level != logrus.WarnLevel {
		t.Errorf("want one retry warning, have %d log entries", len(hook.Entries))
	}
	if _, err := icgem.Read(k); err != nil {
		t.Error(err)
	}
}

func TestMaybeDownloadRemoteShapefile(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	g, err := icgem.Read(writeTestGrid(t, dir))
	if err != nil {
		t.Fatal(err)
	}
	if err := g.WriteShapefile(filepath.Join(dir, "grid.shp")); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	k, err := maybeDownload(context.Background(), srv.URL+"/grid.shp", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	for _, ext := range []string{".shp", ".dbf", ".shx", ".prj"} {
		if _, err := os.Stat(strings.TrimSuffix(k, ".shp") + ext); err != nil {
			t.Errorf("%s: %v", ext, err)
		}
	}
}

func TestMaybeDownloadBlob(t *testing.T) {
	const bucketDir = "tmpblob"
	if err := os.Mkdir(bucketDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucketDir)

	ctx := context.Background()
	bucket, err := OpenBucket(ctx, "file://"+bucketDir)
	if err != nil {
		t.Fatal(err)
	}
	w, err := bucket.NewWriter(ctx, "grid.gdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(testGridText())); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	resetConfig()
	g, err := readGrid("file://" + bucketDir + "/grid.gdf")
	if err != nil {
		t.Fatal(err)
	}
	if g.Size != 25 {
		t.Errorf("size: have %d, want 25", g.Size)
	}

	if _, err := maybeDownload(ctx, "file://"+bucketDir+"/missing.gdf", testLogger()); err == nil {
		t.Error("missing blob should fail")
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("invalid provider should fail")
	}
}

func TestExpandShp(t *testing.T) {
	if have := expandShp("a/grid.gdf"); len(have) != 1 {
		t.Errorf("have %v", have)
	}
	want := []string{"a/coast.shp", "a/coast.dbf", "a/coast.shx", "a/coast.prj"}
	if have := expandShp("a/coast.shp"); strings.Join(have, " ") != strings.Join(want, " ") {
		t.Errorf("have %v, want %v", have, want)
	}
}
