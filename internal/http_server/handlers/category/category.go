package category

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"linkshare/internal/categories"
	resp "linkshare/internal/lib/api/response"
	sl "linkshare/internal/lib/logger"
	"linkshare/internal/middleware/authn"
	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type CreateRequest struct {
	Name    string `json:"name" validate:"required"`
	Image   string `json:"image" validate:"required"`
	Content string `json:"content" validate:"required,min=20"`
}

type UpdateRequest struct {
	Name    string `json:"name" validate:"required"`
	Image   string `json:"image"`
	Content string `json:"content" validate:"required,min=20"`
}

type PageRequest struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

type ReadResponse struct {
	Category models.Category `json:"category"`
	Links    []models.Link   `json:"links"`
}

func NewCreate(
	log *slog.Logger,
	validate *validator.Validate,
	service *categories.Categories,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.category.NewCreate"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		profile, ok := authn.Profile(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Authorization required"))

			return
		}

		var req CreateRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		created, err := service.Create(ctx, profile.ID, req.Name, req.Content, req.Image)
		if err != nil {
			switch {
			case errors.Is(err, categories.ErrInvalidImage):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid image"))
			case errors.Is(err, categories.ErrUploadFailed):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Upload to s3 failed"))
			case errors.Is(err, storage.ErrCategoryExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Category already exists"))
			default:
				log.Error("failed to create category", sl.Err(err))

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Error saving category to db"))
			}

			return
		}

		render.JSON(w, r, created)
	}
}

func NewList(
	log *slog.Logger,
	service *categories.Categories,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.category.NewList"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		list, err := service.List(r.Context())
		if err != nil {
			log.Error("failed to list categories", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Category could not load"))

			return
		}

		render.JSON(w, r, list)
	}
}

// NewRead returns the category plus a page of its links (limit/skip in the
// body, used by the client's infinite scroll).
func NewRead(
	log *slog.Logger,
	service *categories.Categories,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.category.NewRead"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req PageRequest
		_ = render.DecodeJSON(r.Body, &req)

		category, links, err := service.Read(r.Context(), chi.URLParam(r, "slug"), req.Limit, req.Skip)
		if err != nil {
			if errors.Is(err, storage.ErrCategoryNotFound) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Could not load category"))

				return
			}

			log.Error("failed to read category", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Could not load links for the category"))

			return
		}

		render.JSON(w, r, ReadResponse{Category: category, Links: links})
	}
}

func NewUpdate(
	log *slog.Logger,
	validate *validator.Validate,
	service *categories.Categories,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.category.NewUpdate"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req UpdateRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		updated, err := service.Update(ctx, chi.URLParam(r, "slug"), req.Name, req.Content, req.Image)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrCategoryNotFound):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Could not find category to update"))
			case errors.Is(err, categories.ErrInvalidImage):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid image"))
			case errors.Is(err, categories.ErrUploadFailed):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Upload to s3 failed"))
			default:
				log.Error("failed to update category", sl.Err(err))

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Error saving updated category to db"))
			}

			return
		}

		render.JSON(w, r, updated)
	}
}

func NewDelete(
	log *slog.Logger,
	service *categories.Categories,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.category.NewDelete"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := service.Delete(ctx, chi.URLParam(r, "slug")); err != nil {
			if errors.Is(err, storage.ErrCategoryNotFound) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Could not find category"))

				return
			}

			log.Error("failed to delete category", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Could not delete category"))

			return
		}

		render.JSON(w, r, resp.Message("Category deleted successfully"))
	}
}
