package studies

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/api/middleware"
	studysvc "github.com/anoixa/dicom-portal/internal/studies"
	"github.com/anoixa/dicom-portal/utils/format"
	"github.com/gin-gonic/gin"
)

// multipartOverhead 表单字段与边界占用的额外字节
const multipartOverhead = 1 << 20

// CreateStudy 上传 DICOM 文件并创建检查
func (h *Handler) CreateStudy(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.RespondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %s limit", format.Size(h.maxBytes)))
			return
		}
		common.RespondError(c, http.StatusBadRequest, "A DICOM file is required under the 'file' key")
		return
	}

	in := studysvc.Upload{
		FileName:         fileHeader.Filename,
		Size:             fileHeader.Size,
		StudyType:        c.PostForm("study_type"),
		StudyDescription: optionalForm(c, "study_description"),
		Notes:            optionalForm(c, "notes"),
	}
	// 先校验再打开文件，拒绝的请求不会触达存储
	if err := h.studies.ValidateUpload(in); err != nil {
		common.RespondAppError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()
	in.Content = file

	study, err := h.studies.Create(c.Request.Context(), actor, in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, study)
}

func optionalForm(c *gin.Context, key string) *string {
	value, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
