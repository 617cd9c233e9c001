package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// DICOM 文件以 raw 资源存储，public_id 保留扩展名
const cloudinaryRawResource = "raw"

// CloudinaryConfig Cloudinary 配置
type CloudinaryConfig struct {
	URL    string
	Folder string
}

// CloudinaryStorage Cloudinary 存储实现
type CloudinaryStorage struct {
	cld        *cloudinary.Cloudinary
	folder     string
	httpClient *http.Client
}

// NewCloudinaryStorage 创建 Cloudinary 存储提供者
// URL 为空时读取 CLOUDINARY_URL 环境变量
func NewCloudinaryStorage(cfg CloudinaryConfig) (*CloudinaryStorage, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.URL != "" {
		cld, err = cloudinary.NewFromURL(cfg.URL)
	} else {
		cld, err = cloudinary.New()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryStorage{
		cld:        cld,
		folder:     strings.Trim(cfg.Folder, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (s *CloudinaryStorage) publicID(key string) string {
	if s.folder == "" {
		return key
	}
	return s.folder + "/" + key
}

func (s *CloudinaryStorage) deliveryURL(key string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/%s/upload/%s",
		s.cld.Config.Cloud.CloudName, cloudinaryRawResource, s.publicID(key))
}

// SaveWithContext 上传为 raw 资源，返回 secure URL
func (s *CloudinaryStorage) SaveWithContext(ctx context.Context, key string, file io.Reader) (string, error) {
	if !IsValidStoragePath(key) {
		return "", fmt.Errorf("invalid storage path: %s", key)
	}

	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     s.publicID(key),
		ResourceType: cloudinaryRawResource,
		Overwrite:    api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload '%s' to cloudinary: %w", key, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload failed: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	return resp.SecureURL, nil
}

// GetWithContext 通过 CDN 地址下载文件
func (s *CloudinaryStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.request(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code from cloudinary: %d", resp.StatusCode)
	}
}

// DeleteWithContext 删除资源并刷新 CDN 缓存
func (s *CloudinaryStorage) DeleteWithContext(ctx context.Context, key string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     s.publicID(key),
		ResourceType: cloudinaryRawResource,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete '%s' from cloudinary: %w", key, err)
	}

	switch resp.Result {
	case "ok":
		return nil
	case "not found":
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	default:
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}
}

// Exists 检查资源是否存在
func (s *CloudinaryStorage) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.request(ctx, http.MethodHead, key)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code from cloudinary: %d", resp.StatusCode)
	}
}

func (s *CloudinaryStorage) request(ctx context.Context, method, key string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.deliveryURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

// KeyFromURL 从 secure URL 中解析 key
// 例: https://res.cloudinary.com/demo/raw/upload/v1705314600/dicom/dicom/2024/01/15/x.dcm -> dicom/2024/01/15/x.dcm
func (s *CloudinaryStorage) KeyFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid cloudinary url: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}
	if uploadIndex == -1 || uploadIndex+1 >= len(parts) {
		return "", fmt.Errorf("could not extract public ID from URL: %s", fileURL)
	}

	rest := parts[uploadIndex+1:]
	if isCloudinaryVersion(rest[0]) {
		rest = rest[1:]
	}
	publicID := strings.Join(rest, "/")

	key := publicID
	if s.folder != "" {
		if !strings.HasPrefix(publicID, s.folder+"/") {
			return "", fmt.Errorf("public ID %q is outside folder %s", publicID, s.folder)
		}
		key = strings.TrimPrefix(publicID, s.folder+"/")
	}
	if !IsValidStoragePath(key) {
		return "", fmt.Errorf("invalid storage path: %s", key)
	}
	return key, nil
}

// isCloudinaryVersion 版本段形如 v1705314600
func isCloudinaryVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Health 调用 Admin API ping
func (s *CloudinaryStorage) Health(ctx context.Context) error {
	if _, err := s.cld.Admin.Ping(ctx); err != nil {
		return fmt.Errorf("cloudinary ping failed: %w", err)
	}
	return nil
}

// Name 返回存储名称
func (s *CloudinaryStorage) Name() string {
	return "cloudinary"
}
