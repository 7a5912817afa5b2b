package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/service"
)

type CreateStoreRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
	LogoURL     string `json:"logoUrl" validate:"omitempty,url"`
}

type CreateProductRequest struct {
	StoreID     int64           `json:"storeId" validate:"required,gt=0"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURLs   []string        `json:"imageUrls" validate:"dive,url"`
	Category    string          `json:"category"`
}

// UpdateProductRequest - магазин товара не меняется, поэтому storeId нет
type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURLs   []string        `json:"imageUrls" validate:"dive,url"`
	Category    string          `json:"category"`
}

// ListProductsHandler обрабатывает GET /api/products, ?store= ограничивает каталог одним магазином
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		var storeID int64
		if raw := r.URL.Query().Get("store"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeBadRequest(w, "invalid store")
				return
			}
			storeID = id
		}

		products, err := catalog.ListProducts(r.Context(), storeID)
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

func GetProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		product, err := catalog.GetProduct(r.Context(), id)
		if err != nil {
			logger.Error("failed to get product", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

// CreateStoreHandler обрабатывает POST /api/stores
func CreateStoreHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateStoreHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req CreateStoreRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		store, err := catalog.CreateStore(r.Context(), actor, &models.Store{
			Name:        req.Name,
			Description: req.Description,
			LogoURL:     req.LogoURL,
		})
		if err != nil {
			logger.Error("failed to create store", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, store)
	}
}

// CreateProductHandler обрабатывает POST /api/products
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req CreateProductRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		product, err := catalog.CreateProduct(r.Context(), actor, &models.Product{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			ImageURLs:   req.ImageURLs,
			Category:    req.Category,
			StoreID:     req.StoreID,
		})
		if err != nil {
			logger.Error("failed to create product", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

// UpdateStoreHandler обрабатывает PUT /api/stores/{id}
func UpdateStoreHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateStoreHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req CreateStoreRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		store, err := catalog.UpdateStore(r.Context(), actor, &models.Store{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			LogoURL:     req.LogoURL,
		})
		if err != nil {
			logger.Error("failed to update store", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, store)
	}
}

// UpdateProductHandler обрабатывает PUT /api/products/{id}
func UpdateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req UpdateProductRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		product, err := catalog.UpdateProduct(r.Context(), actor, &models.Product{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			ImageURLs:   req.ImageURLs,
			Category:    req.Category,
		})
		if err != nil {
			logger.Error("failed to update product", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

// DeleteProductHandler обрабатывает DELETE /api/products/{id}
func DeleteProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		if err := catalog.DeleteProduct(r.Context(), actor, id); err != nil {
			logger.Error("failed to delete product", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted"})
	}
}
