package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeS3 keeps objects in a map and pages with numeric continuation tokens.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	failGet error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	offset := 0
	if in.ContinuationToken != nil {
		offset, _ = strconv.Atoi(aws.ToString(in.ContinuationToken))
	}
	end := offset + int(aws.ToInt32(in.MaxKeys))
	truncated := end < len(keys)
	if !truncated {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(truncated)}
	now := time.Now()
	for _, k := range keys[offset:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(now),
		})
	}
	if truncated {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func TestS3Backend(t *testing.T) {
	Convey("Given an S3 backend over a fake client", t, func() {
		backendContract(func() (Backend, func()) {
			return NewS3Backend(newFakeS3(), "aurum"), func() {}
		}, true)

		Convey("When the service reports a generic NotFound code", func() {
			fake := newFakeS3()
			fake.failGet = &smithy.GenericAPIError{Code: "NotFound", Message: "gone"}
			_, err := NewS3Backend(fake, "aurum").Get(context.Background(), "k")

			Convey("Then it maps to ErrNotFound", func() {
				So(err, ShouldEqual, ErrNotFound)
			})
		})

		Convey("When the service fails otherwise", func() {
			fake := newFakeS3()
			fake.failGet = &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"}
			_, err := NewS3Backend(fake, "aurum").Get(context.Background(), "k")

			Convey("Then the error is wrapped and not treated as missing", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrNotFound), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, "SlowDown")
			})
		})
	})
}
