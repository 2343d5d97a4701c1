package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/receiptvault/pkg/internal/service"
	"github.com/yeisme/receiptvault/pkg/internal/types"
)

// UploadFile 接收 multipart 上传，按当前模板落盘并登记元数据.
// 位图文件在存储后内联优化.
func (h *Handler) UploadFile(c *gin.Context) {
	receiptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.engine.GetReceipt(c.Request.Context(), receiptID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)

		return
	}

	src, err := fh.Open()
	if err != nil {
		serverError(c, err)

		return
	}
	defer src.Close()

	file, err := h.engine.StoreFile(c.Request.Context(), receipt, src, fh.Filename)
	if err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, types.UploadFileResponse{
		File:    fileInfo(file),
		Path:    h.engine.PathOf(receipt, file),
		Success: true,
	})
}

// ListFiles 返回票据下全部文件的元数据视图，按序号排序.
func (h *Handler) ListFiles(c *gin.Context) {
	receiptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	rows, err := h.engine.ListFilesOf(c.Request.Context(), receiptID)
	if err != nil {
		serverError(c, err)

		return
	}

	infos := make([]types.ReceiptFileInfo, 0, len(rows))
	for i := range rows {
		infos = append(infos, fileInfo(&rows[i]))
	}

	c.JSON(http.StatusOK, gin.H{"files": infos})
}

// DownloadFile 以原始文件名回送文件内容.
func (h *Handler) DownloadFile(c *gin.Context) {
	fileID, ok := paramID(c, "id")
	if !ok {
		return
	}

	file, path, err := h.engine.OpenFile(c.Request.Context(), fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	c.FileAttachment(path, file.OriginalFilename)
}

// DeleteFile 删除物理文件与元数据行.
func (h *Handler) DeleteFile(c *gin.Context) {
	fileID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.engine.DeleteFile(c.Request.Context(), fileID); err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": fileID})
}

// RenameReceipt 在票据字段变更后重新解析其全部文件的路径.
// 每文件错误随响应返回，不中断其余文件.
func (h *Handler) RenameReceipt(c *gin.Context) {
	receiptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req types.RenameReceiptRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)

			return
		}
	}

	renames, itemErrs, err := h.engine.RenameReceiptFiles(c.Request.Context(), receiptID, service.RenameOptions{
		Pattern:   req.Pattern,
		PrevOwner: req.PrevOwner,
		PrevDate:  req.PrevDate,
	})
	if err != nil {
		serverError(c, err)

		return
	}

	if renames == nil {
		renames = []types.FileRename{}
	}

	if itemErrs == nil {
		itemErrs = []types.ItemError{}
	}

	c.JSON(http.StatusOK, types.RenameReceiptResponse{
		ReceiptID: receiptID,
		Renames:   renames,
		Errors:    itemErrs,
	})
}
