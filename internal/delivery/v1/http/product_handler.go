package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/bodhirag/catalog-backend/internal/usecase"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// ProductResponse — представление продукта в ответах API.
type ProductResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	Category         string   `json:"category"`
	Materials        []string `json:"materials"`
	CareInstructions string   `json:"care_instructions,omitempty"`
	ImageURLs        []string `json:"image_urls"`
	AIDescription    *string  `json:"ai_description,omitempty"`
	CreatedAt        *string  `json:"created_at,omitempty"`
	UpdatedAt        *string  `json:"updated_at,omitempty"`
}

// SearchResultResponse — продукт с оценкой схожести.
type SearchResultResponse struct {
	Product         ProductResponse `json:"product"`
	SimilarityScore float64         `json:"similarity_score"`
}

type searchRequestBody struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit"`
	Category string   `json:"category"`
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
}

type updateRequestBody struct {
	Name             *string   `json:"name"`
	Description      *string   `json:"description"`
	Price            *float64  `json:"price"`
	Category         *string   `json:"category"`
	Materials        *[]string `json:"materials"`
	CareInstructions *string   `json:"care_instructions"`
	ImageURLs        *[]string `json:"image_urls"`
}

// createProduct
//
//	@Summary		Создание нового продукта
//	@Description	Создает продукт в каталоге, загружает изображение и индексирует его для поиска
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name				formData	string	true	"Название"
//	@Param			description			formData	string	true	"Описание"
//	@Param			price				formData	number	true	"Цена"
//	@Param			category			formData	string	true	"Категория"
//	@Param			materials			formData	string	true	"Материалы через запятую"
//	@Param			care_instructions	formData	string	false	"Уход"
//	@Param			image				formData	file	false	"Изображение"
//	@Success		201	{object}	ProductResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 150 << 20
		maxMemory           = 32 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	price, err := parsePrice(r.FormValue("price"))
	if err != nil {
		WriteError(w, err)
		return
	}

	image, err := parseImage(r, "image")
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	req := &usecase.CreateProductReq{
		Name:             r.FormValue("name"),
		Description:      r.FormValue("description"),
		Price:            price,
		Category:         r.FormValue("category"),
		Materials:        splitCSV(r.FormValue("materials")),
		CareInstructions: r.FormValue("care_instructions"),
		ImageURLs:        splitCSV(r.FormValue("image_urls")),
		AIDescription:    r.FormValue("ai_description"),
		Image:            image,
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), req)
	if err != nil {
		p.logger.Warnf("create product failed: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// getProduct
//
//	@Summary	Получение продукта по ID
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"ID продукта"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := p.productUsecase.GetProductByID(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// listProducts
//
//	@Summary	Список продуктов каталога
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		limit	query		int	false	"Максимум записей"
//	@Success	200		{array}		ProductResponse
//	@Router		/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := p.productUsecase.ListProducts(r.Context(), limit)
	if err != nil {
		p.logger.Warnf("list products failed: %v", err)
		WriteError(w, err)
		return
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, *toProductResponse(&products[i]))
	}

	WriteSuccess(w, http.StatusOK, res)
}

// searchProducts
//
//	@Summary		Семантический поиск по каталогу
//	@Description	Ищет продукты по смыслу запроса с опциональными фильтрами по категории и цене
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		searchRequestBody	true	"Параметры поиска"
//	@Success		200		{array}		SearchResultResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/products/search [post]
func (p *ProductHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	p.search(w, r, &body)
}

// searchProductsGET — вариант поиска через query-параметры.
//
//	@Summary	Семантический поиск по каталогу (GET)
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		q			query		string	true	"Поисковый запрос"
//	@Param		limit		query		int		false	"Количество результатов"
//	@Param		category	query		string	false	"Категория"
//	@Param		min_price	query		number	false	"Минимальная цена"
//	@Param		max_price	query		number	false	"Максимальная цена"
//	@Success	200			{array}		SearchResultResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/products/search [get]
func (p *ProductHandler) searchProductsGET(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	body := searchRequestBody{
		Query:    q.Get("q"),
		Limit:    limit,
		Category: q.Get("category"),
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		body.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		body.MaxPrice = &v
	}

	p.search(w, r, &body)
}

func (p *ProductHandler) search(w http.ResponseWriter, r *http.Request, body *searchRequestBody) {
	filters := domain.SearchFilter{}
	if body.Category != "" && body.Category != string(domain.CategoryAll) {
		filters["category"] = body.Category
	}
	if body.MinPrice != nil || body.MaxPrice != nil {
		filters["price"] = domain.Range{GTE: body.MinPrice, LTE: body.MaxPrice}
	}

	results, err := p.productUsecase.SearchProducts(r.Context(), usecase.NewSearchProductsReq(body.Query, body.Limit, filters))
	if err != nil {
		p.logger.Warnf("search failed: %v", err)
		WriteError(w, err)
		return
	}

	res := make([]SearchResultResponse, 0, len(results))
	for _, result := range results {
		res = append(res, SearchResultResponse{
			Product:         *toProductResponse(&result.Product),
			SimilarityScore: result.SimilarityScore,
		})
	}

	WriteSuccess(w, http.StatusOK, res)
}

// updateProduct
//
//	@Summary	Частичное обновление продукта
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"ID продукта"
//	@Param		request	body		updateRequestBody	true	"Изменяемые поля"
//	@Success	200		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body updateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	req := &usecase.UpdateProductReq{
		Name:             body.Name,
		Description:      body.Description,
		Price:            body.Price,
		Category:         body.Category,
		Materials:        body.Materials,
		CareInstructions: body.CareInstructions,
		ImageURLs:        body.ImageURLs,
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), id, req)
	if err != nil {
		p.logger.Warnf("update product %s failed: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// deleteProduct
//
//	@Summary	Удаление продукта
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"ID продукта"
//	@Success	200	{object}	map[string]interface{}
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}

func toProductResponse(p *domain.Product) *ProductResponse {
	res := &ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price,
		Category:         string(p.Category),
		Materials:        p.Materials,
		CareInstructions: p.CareInstructions,
		ImageURLs:        p.ImageURLs,
		AIDescription:    p.AIDescription,
	}
	if res.Materials == nil {
		res.Materials = []string{}
	}
	if res.ImageURLs == nil {
		res.ImageURLs = []string{}
	}
	if p.CreatedAt != nil {
		s := p.CreatedAt.Format(time.RFC3339Nano)
		res.CreatedAt = &s
	}
	if p.UpdatedAt != nil {
		s := p.UpdatedAt.Format(time.RFC3339Nano)
		res.UpdatedAt = &s
	}

	return res
}
