package studies

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/api/middleware"
	"github.com/anoixa/dicom-portal/utils"
	"github.com/anoixa/dicom-portal/utils/generator"
	"github.com/anoixa/dicom-portal/utils/pool"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const dicomContentType = "application/dicom"

// GetStudyFile 读取权限校验通过后输出 DICOM 文件
func (h *Handler) GetStudyFile(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	study, rc, err := h.studies.OpenFile(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	defer rc.Close()

	header := c.Writer.Header()
	header.Set("Content-Type", dicomContentType)
	header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, generator.SanitizeFileName(study.FileName)))
	header.Set("Cache-Control", "private, no-store")
	if study.FileSize != nil {
		header.Set("Content-Length", strconv.FormatInt(*study.FileSize, 10))
	}
	c.Status(http.StatusOK)

	written, err := pool.Copy(c.Writer, rc)
	if err != nil {
		// 响应头已发出，只能记录
		evt := log.Warn()
		if utils.IsClientDisconnect(err) {
			evt = log.Debug()
		}
		evt.Err(err).
			Str("study_id", study.ID).
			Int64("written", written).
			Msg("study file stream interrupted")
	}
}
