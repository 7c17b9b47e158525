package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	url, err := Local{BaseURL: "http://localhost:8080/mockups/"}.Publish(context.Background(), "/tmp/x.png", "mockup-01.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/mockups/mockup-01.png", url)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3_Publish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockup-01.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	fake := &fakeS3{}
	p := &S3{client: fake, bucket: "mockups", prefix: "previews", region: "eu-west-1"}

	url, err := p.Publish(context.Background(), path, "mockup-01.png")
	require.NoError(t, err)

	assert.Equal(t, "https://mockups.s3.eu-west-1.amazonaws.com/previews/mockup-01.png", url)
	assert.Equal(t, "previews/mockup-01.png", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, []byte("png"), fake.body)

	p.publicURL = "https://cdn.example.com"
	url, err = p.Publish(context.Background(), path, "mockup-01.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/previews/mockup-01.png", url)
}

func TestS3_PublishError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	p := &S3{client: &fakeS3{err: errors.New("denied")}, bucket: "b"}
	_, err := p.Publish(context.Background(), path, "m.png")
	assert.ErrorContains(t, err, "denied")
}
