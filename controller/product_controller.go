package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"tawarin-backend/model"
	"tawarin-backend/usecase"
)

type ProductController struct {
	usecase *usecase.ProductUsecase
}

func NewProductController(uc *usecase.ProductUsecase) *ProductController {
	return &ProductController{usecase: uc}
}

type createProductRequest struct {
	Name        string `json:"name"`
	ListPrice   int    `json:"list_price"`
	FloorPrice  int    `json:"floor_price"`
	Description string `json:"description"`
	SellerID    string `json:"seller_id"`
}

// HandleProducts serves GET /products and POST /products.
func (c *ProductController) HandleProducts(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		products, err := c.usecase.GetAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if products == nil {
			products = []model.Product{}
		}
		// Product.FloorPrice is json:"-"; the secret never leaves the server.
		writeJSON(w, http.StatusOK, products)

	case http.MethodPost:
		var req createProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		product, err := c.usecase.Create(r.Context(), req.Name, req.ListPrice, req.FloorPrice, req.Description, req.SellerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleProductDetail serves GET /products/{id}.
func (c *ProductController) HandleProductDetail(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// path: /products/{id}
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 3 || parts[len(parts)-1] == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	id := parts[len(parts)-1]

	product, err := c.usecase.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}
