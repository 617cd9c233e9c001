package generator

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/anoixa/dicom-portal/utils"
)

const (
	dicomPrefix     = "dicom"
	maxBaseNameLen  = 64
	randomSuffixLen = 6
)

// PathGenerator 分层存储路径生成器
type PathGenerator struct {
	now    func() time.Time
	random func(int) (string, error)
}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{
		now:    time.Now,
		random: utils.RandomAlphanumeric,
	}
}

// DICOMObjectKey 生成 DICOM 文件的存储路径
// 格式: dicom/2024/01/15/1705314600000-a1b2c3-chest_ct.dcm
func (pg *PathGenerator) DICOMObjectKey(fileName string) (string, error) {
	ts := pg.now().UTC()
	suffix, err := pg.random(randomSuffixLen)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%d-%s-%s",
		dicomPrefix,
		ts.Format("2006/01/02"),
		ts.UnixMilli(),
		suffix,
		SanitizeFileName(fileName),
	), nil
}

// SanitizeFileName 只保留存储层允许的字符，扩展名统一小写
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	var sb strings.Builder
	lastDash := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}

	clean := strings.Trim(sb.String(), "-")
	if len(clean) > maxBaseNameLen {
		clean = clean[:maxBaseNameLen]
	}
	if clean == "" {
		clean = "study"
	}
	return clean + sanitizeExt(ext)
}

func sanitizeExt(ext string) string {
	if len(ext) < 2 {
		return ""
	}
	for _, r := range strings.TrimPrefix(ext, ".") {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
