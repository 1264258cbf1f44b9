/*
Copyright © 2019 the swegrid authors.
This file is part of swegrid.

swegrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

swegrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with swegrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package swegridutil

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

// retryInterval is the initial wait before a failed download is retried.
var retryInterval = 500 * time.Millisecond

// maybeDownload checks if path is an existing local file. If not, and
// path is an http(s) or blob storage URL, it downloads the file to a
// temporary directory, retrying failures up to retries times, and
// returns the location of the downloaded file. Other paths are
// returned unchanged.
func maybeDownload(ctx context.Context, path string, retries int, log logrus.FieldLogger) (string, error) {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}

	var download func(ctx context.Context, path string, w io.Writer) error
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		download = downloadHTTP
	case IsBlob(path):
		download = downloadBlob
	default:
		return path, nil
	}

	dir, err := ioutil.TempDir("", "swegrid")
	if err != nil {
		return "", fmt.Errorf("swegridutil: creating temporary download directory: %v", err)
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("swegridutil: parsing download location: %v", err)
	}
	local := filepath.Join(dir, filepath.Base(u.Path))

	if retries < 0 {
		retries = 0
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = retryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	err = backoff.RetryNotify(
		func() error {
			w, err := os.Create(local)
			if err != nil {
				return err
			}
			if err := download(ctx, path, w); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		},
		b,
		func(err error, d time.Duration) {
			log.WithFields(logrus.Fields{
				"url":   path,
				"retry": d,
			}).Warnf("swegridutil: download failed: %v", err)
		},
	)
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("swegridutil: downloading %s: %v", path, err)
	}
	log.WithFields(logrus.Fields{"url": path, "file": local}).Info("swegridutil: downloaded file")
	return local, nil
}

// downloadHTTP copies the contents of the URL path to w.
func downloadHTTP(ctx context.Context, path string, w io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// blobLocation splits a blob URL into the bucket URL and the key of
// the blob within the bucket. For the local filesystem, the bucket is
// the directory holding the file.
func blobLocation(u *url.URL) (bucket, key string) {
	if u.Scheme == "file" {
		p := filepath.Join(u.Host, filepath.FromSlash(u.Path))
		return "file://" + filepath.ToSlash(filepath.Dir(p)), filepath.Base(p)
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The accepted storage providers are "file" for a directory on the local
// filesystem, "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("swegridutil: opening bucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(filepath.Join(u.Host, filepath.FromSlash(u.Path)))
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("swegridutil: invalid storage provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
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

// downloadBlob copies the blob at path to w.
func downloadBlob(ctx context.Context, path string, w io.Writer) error {
	u, err := url.Parse(path)
	if err != nil {
		return err
	}
	bucketName, key := blobLocation(u)
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return err
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}
