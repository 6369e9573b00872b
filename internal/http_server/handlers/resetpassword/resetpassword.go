package resetpassword

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
	ResetPasswordLink string `json:"resetPasswordLink" validate:"required"`
	NewPassword       string `json:"newPassword" validate:"required,min=6"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resetpassword.New"

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

		err = authService.ResetPassword(ctx, req.ResetPasswordLink, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Token is required"))
			case errors.Is(err, auth.ErrExpiredLink):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Expired link. Try again."))
			case errors.Is(err, auth.ErrInvalidToken):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid token. Try again."))
			case errors.Is(err, auth.ErrSaveFailed):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Password reset failed. Try again."))
			default:
				log.Error("failed to reset password", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("password reset successfully")

		render.JSON(w, r, resp.Message("Great! Now you can login with your new password."))
	}
}
