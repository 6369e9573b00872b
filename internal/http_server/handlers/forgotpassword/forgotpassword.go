package forgotpassword

import (
	"context"
	"errors"
	"fmt"
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
	Email string `json:"email" validate:"required,email"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.forgotpassword.New"

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

		err = authService.ForgotPassword(ctx, req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("User with that email does not exist"))

				return
			}
			if errors.Is(err, auth.ErrSaveFailed) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Password reset failed. Try again later."))

				return
			}

			// the reset link is already persisted; only the email failed
			if errors.Is(err, auth.ErrEmailSendFailed) {
				render.JSON(w, r, resp.Message("We could not verify your email. Try again later."))

				return
			}

			log.Error("failed to start password reset", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Message(
			fmt.Sprintf("Email has been sent to %s. Click on the link to reset your password.", req.Email),
		))
	}
}
