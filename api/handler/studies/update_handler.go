package studies

import (
	"net/http"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/api/middleware"
	"github.com/anoixa/dicom-portal/utils/validator"
	"github.com/gin-gonic/gin"
)

// UpdateStudy 部分更新检查
func (h *Handler) UpdateStudy(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req updateStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	study, err := h.studies.Update(c.Request.Context(), actor, c.Param("id"), req.patch())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, study)
}

// DeleteStudy 删除检查及其文件
func (h *Handler) DeleteStudy(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id := c.Param("id")
	if err := h.studies.Delete(c.Request.Context(), actor, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Study deleted", gin.H{"id": id})
}
