package activate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"linkshare/internal/auth"
	resp "linkshare/internal/lib/api/response"
	sl "linkshare/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Token string `json:"token" validate:"required"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.activate.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err = authService.RegisterActivate(ctx, req.Token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredLink):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Expired link. Try again."))
			case errors.Is(err, auth.ErrEmailTaken):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Email is taken"))
			case errors.Is(err, auth.ErrSaveFailed):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Error saving user in database. Try again later."))
			default:
				log.Error("failed to activate user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("user activated")

		render.JSON(w, r, resp.Message("Registration successful. Please login."))
	}
}
