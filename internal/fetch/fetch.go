package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Fetcher resolves source references (file://, http(s)://, s3://) to raw bytes.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// Options configures a Fetcher.
type Options struct {
	HTTPTimeout time.Duration
	MaxBytes    int64
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   opts.MaxBytes,
	}
}

// Fetch downloads the referenced document and returns its base name and bytes.
// A non-empty password triggers decryption of encrypted S3 payloads.
func (f *Fetcher) Fetch(ctx context.Context, ref, password string) (string, []byte, error) {
	// Strip optional #page fragment if present
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "s3://"):
		data, err = f.fetchS3(ctx, ref)
		if err == nil && password != "" {
			data, err = Decrypt(data, password)
		}
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		data, err = f.fetchHTTP(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		data, err = f.fetchFile(strings.TrimPrefix(ref, "file://"))
	default:
		return "", nil, fmt.Errorf("unsupported ref scheme: %s", ref)
	}
	if err != nil {
		return "", nil, err
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return "", nil, fmt.Errorf("source exceeds %d bytes", f.maxBytes)
	}
	return baseName(ref), data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawurl string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d fetching %s", resp.StatusCode, rawurl)
	}
	var r io.Reader = resp.Body
	if f.maxBytes > 0 {
		r = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	return io.ReadAll(r)
}

func (f *Fetcher) fetchFile(p string) ([]byte, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return b, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, s3url string) ([]byte, error) {
	// s3://bucket/key
	p := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(p, "/")
	if slash <= 0 || slash == len(p)-1 {
		return nil, fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket := p[:slash]
	key := p[slash+1:]

	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	cli := s3.NewFromConfig(cfg)
	dl := manager.NewDownloader(cli)

	buf := manager.NewWriteAtBuffer([]byte{})
	n, err := dl.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download %s: %w", s3url, err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int64("bytes", n).Msg("downloaded s3 source")
	return buf.Bytes(), nil
}

// baseName extracts a display file name from a ref; query strings and empty
// paths yield "".
func baseName(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		b := path.Base(u.Path)
		if b != "." && b != "/" {
			return b
		}
	}
	return ""
}
