package studies

import (
	"net/http"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/api/middleware"
	"github.com/anoixa/dicom-portal/database/models"
	"github.com/gin-gonic/gin"
)

// ListStudies 按角色返回可见的检查，最新的在前
func (h *Handler) ListStudies(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.accounts.Me(c.Request.Context(), actor.ID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	list, err := h.studies.List(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if list == nil {
		list = []models.Study{}
	}

	common.RespondSuccess(c, listResponse{
		Count:   len(list),
		Studies: list,
		User:    user.Summary(),
	})
}

// GetStudy 获取单个检查
func (h *Handler) GetStudy(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	study, err := h.studies.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, study)
}
