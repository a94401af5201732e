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
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// downloadRetries is the number of times a failed HTTP download is retried.
var downloadRetries uint64 = 3

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or blob.
// If it is, it downloads the file and
// returns the path to the downloaded file.
// For shapefiles, it downloads all associated files and
// returns the path to the file with the ".shp" extension.
// Any other path is returned unchanged.
// Downloads are saved in a new temporary directory, which the caller
// removes with removeDownload once the file has been read.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(path, log)
	}
	if IsBlob(path) {
		return downloadBlob(ctx, path, log)
	}
	return path, nil
}

// downloadHTTP downloads a file from the specified URL, retrying with
// exponential backoff, and returns the path to the downloaded file.
func downloadHTTP(path string, log logrus.FieldLogger) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("icgem: %v", err)
	}
	dir, err := ioutil.TempDir("", "icgem")
	if err != nil {
		return "", fmt.Errorf("icgem: creating temporary download directory: %v", err)
	}
	fnames := expandShp(u.Path)
	for _, fname := range fnames {
		src := *u
		src.Path = fname
		dst := filepath.Join(dir, filepath.Base(fname))
		err := getWithRetry(src.String(), dst, log)
		if err != nil && filepath.Ext(fname) == ".prj" {
			log.WithError(err).Warn("icgem: shapefile has no projection file")
			continue
		}
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

// getWithRetry saves the body of the response to a GET request for src
// in the file dst. Client errors are not retried.
func getWithRetry(src, dst string, log logrus.FieldLogger) error {
	var permanent error
	op := func() error {
		resp, err := http.Get(src)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			permanent = fmt.Errorf("icgem: downloading %s: %s", src, resp.Status)
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("icgem: downloading %s: %s", src, resp.Status)
		}
		w, err := os.Create(dst)
		if err != nil {
			return err
		}
		if _, err = io.Copy(w, resp.Body); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), downloadRetries)
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		log.WithFields(logrus.Fields{
			"url":      src,
			"retry_in": d,
		}).Warn(err)
	})
	if err != nil {
		return fmt.Errorf("icgem: downloading %s: %v", src, err)
	}
	return permanent
}

// removeDownload removes the temporary directory holding local if it was
// downloaded by maybeDownload from path.
func removeDownload(path, local string, log logrus.FieldLogger) {
	if local == path {
		return
	}
	if err := os.RemoveAll(filepath.Dir(local)); err != nil {
		log.WithError(err).WithField("path", local).Warn("icgem: removing downloaded file")
	}
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("icgemutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("icgemutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("icgem: %v", err)
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return "", fmt.Errorf("icgem: opening bucket for %s: %v", path, err)
	}
	dir, err := ioutil.TempDir("", "icgem")
	if err != nil {
		return "", fmt.Errorf("icgem: creating temporary download directory: %v", err)
	}
	fnames := expandShp(strings.TrimPrefix(u.Path, "/"))
	for _, key := range fnames {
		if err := copyBlob(ctx, bucket, key, filepath.Join(dir, filepath.Base(key))); err != nil {
			if filepath.Ext(key) == ".prj" {
				log.WithError(err).Warn("icgem: shapefile has no projection file")
				continue
			}
			return "", fmt.Errorf("icgem: downloading %s: %v", path, err)
		}
	}
	log.WithField("path", path).Debug("icgem downloaded blob")
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

func copyBlob(ctx context.Context, bucket *blob.Bucket, key, dst string) error {
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// expandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise
func expandShp(filename string) []string {
	o := []string{filename}
	ext := filepath.Ext(filename)
	if ext != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}
