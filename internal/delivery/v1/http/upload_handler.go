package http

import (
	"net/http"

	"github.com/bodhirag/catalog-backend/internal/usecase"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
)

// UploadHandler принимает изображения и складывает их в объектное хранилище
// без привязки к конкретному продукту.
type UploadHandler struct {
	imagesInfra usecase.ImagesInfra
	logger      logger.Logger
}

func NewUploadHandler(imagesInfra usecase.ImagesInfra, logger logger.Logger) *UploadHandler {
	return &UploadHandler{imagesInfra: imagesInfra, logger: logger}
}

// uploadImage
//
//	@Summary	Загрузка изображения
//	@Tags		upload
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		file	formData	file	true	"Файл изображения"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	ErrorResponse
//	@Router		/upload/image [post]
func (u *UploadHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		WriteError(w, err)
		return
	}

	image, err := parseImage(r, "file")
	if err != nil {
		WriteError(w, err)
		return
	}
	if image == nil {
		WriteError(w, e.ErrMissingFields)
		return
	}

	res, err := u.imagesInfra.UploadImages(r.Context(), usecase.NewUploadImagesReq("uploads", []usecase.ProductImage{*image}))
	if err != nil {
		u.logger.Warnf("image upload failed: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"keys": res.ImageKeys,
		"urls": res.ImageURLs,
	})
}
