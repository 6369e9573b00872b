package link

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "linkshare/internal/lib/api/response"
	sl "linkshare/internal/lib/logger"
	"linkshare/internal/links"
	"linkshare/internal/middleware/authn"
	"linkshare/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type CreateRequest struct {
	Title      string  `json:"title" validate:"required,max=256"`
	URL        string  `json:"url" validate:"required,max=256"`
	Categories []int64 `json:"categories" validate:"required,min=1"`
	Type       string  `json:"type"`
	Medium     string  `json:"medium"`
}

type PageRequest struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

type ClickRequest struct {
	LinkID int64 `json:"linkId" validate:"required"`
}

func NewCreate(
	log *slog.Logger,
	validate *validator.Validate,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewCreate"

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

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		created, err := service.Create(ctx, profile.ID, req.Title, req.URL, req.Categories, req.Type, req.Medium)
		if err != nil {
			log.Error("failed to create link", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Link already exists"))

			return
		}

		render.JSON(w, r, created)
	}
}

func NewList(
	log *slog.Logger,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewList"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req PageRequest
		_ = render.DecodeJSON(r.Body, &req)

		list, err := service.List(r.Context(), req.Limit, req.Skip)
		if err != nil {
			log.Error("failed to list links", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Could not list links"))

			return
		}

		render.JSON(w, r, list)
	}
}

func NewRead(
	log *slog.Logger,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewRead"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Error finding the link"))

			return
		}

		found, err := service.Read(r.Context(), id)
		if err != nil {
			if !errors.Is(err, storage.ErrLinkNotFound) {
				log.Error("failed to read link", sl.Err(err))
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Error finding the link"))

			return
		}

		render.JSON(w, r, found)
	}
}

type UpdateRequest struct {
	Title      string  `json:"title" validate:"required,max=256"`
	URL        string  `json:"url" validate:"required,max=256"`
	Categories []int64 `json:"categories" validate:"required,min=1"`
	Type       string  `json:"type"`
	Medium     string  `json:"medium"`
}

func NewUpdate(
	log *slog.Logger,
	validate *validator.Validate,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewUpdate"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Error updating link"))

			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
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

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		updated, err := service.Update(ctx, id, req.Title, req.URL, req.Categories, req.Type, req.Medium)
		if err != nil {
			if !errors.Is(err, storage.ErrLinkNotFound) {
				log.Error("failed to update link", sl.Err(err))
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Error updating link"))

			return
		}

		render.JSON(w, r, updated)
	}
}

func NewDelete(
	log *slog.Logger,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewDelete"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Error removing link"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := service.Delete(ctx, id); err != nil {
			if !errors.Is(err, storage.ErrLinkNotFound) {
				log.Error("failed to delete link", sl.Err(err))
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Error removing link"))

			return
		}

		render.JSON(w, r, resp.Message("Link removed successfully"))
	}
}

// NewClickCount bumps a link's click counter.
func NewClickCount(
	log *slog.Logger,
	validate *validator.Validate,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewClickCount"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ClickRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		updated, err := service.ClickCount(r.Context(), req.LinkID)
		if err != nil {
			if !errors.Is(err, storage.ErrLinkNotFound) {
				log.Error("failed to update click count", sl.Err(err))
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Could not update the view count"))

			return
		}

		render.JSON(w, r, updated)
	}
}

func NewPopular(
	log *slog.Logger,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewPopular"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		list, err := service.Popular(r.Context())
		if err != nil {
			log.Error("failed to load popular links", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Links not found"))

			return
		}

		render.JSON(w, r, list)
	}
}

func NewPopularInCategory(
	log *slog.Logger,
	service *links.Links,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.link.NewPopularInCategory"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		list, err := service.PopularInCategory(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errors.Is(err, storage.ErrCategoryNotFound) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Could not load categories"))

				return
			}

			log.Error("failed to load popular links", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Links not found"))

			return
		}

		render.JSON(w, r, list)
	}
}
