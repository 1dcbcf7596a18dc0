package httpapi

import (
	"net/http"

	authcore "github.com/casekit/authcore"
	"github.com/go-chi/render"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type changePasswordRequest struct {
	CurrentPassword     string `json:"currentPassword"`
	NewPassword         string `json:"newPassword"`
	RevokeOtherSessions bool   `json:"revokeOtherSessions"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func decodeOrFail[T any](w http.ResponseWriter, r *http.Request, body *T) bool {
	if err := render.DecodeJSON(r.Body, body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, authcore.ActionResult[struct{}]{
			Success: false,
			Error:   &authcore.ActionError{Code: "bad_request", Message: "Malformed request body"},
		})
		return false
	}
	return true
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body signInRequest
	if !decodeOrFail(w, r, &body) {
		return
	}
	r = requestContext(r)

	result := a.actions.SignIn(r.Context(), body.Email, body.Password)
	if result.Success {
		a.setSessionCookie(w, result.Data.Token)
		// The token travels in the cookie only.
		result.Data.Token = ""
	}
	writeResult(w, r, result)
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body signUpRequest
	if !decodeOrFail(w, r, &body) {
		return
	}
	r = requestContext(r)

	result := a.actions.SignUp(r.Context(), body.Email, body.Password, body.Name)
	if result.Success && result.Data.Token != "" {
		a.setSessionCookie(w, result.Data.Token)
		result.Data.Token = ""
	}
	writeResult(w, r, result)
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)

	result := a.actions.SignOut(r.Context(), a.sessionToken(r))
	if result.Success {
		a.clearSessionCookie(w)
	}
	writeResult(w, r, result)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	writeResult(w, r, a.actions.GetSession(r.Context(), a.sessionToken(r)))
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body changePasswordRequest
	if !decodeOrFail(w, r, &body) {
		return
	}
	r = requestContext(r)

	// The acting user comes from the session, never from the body.
	sess := a.actions.GetSession(r.Context(), a.sessionToken(r))
	if !sess.Success {
		writeResult(w, r, sess)
		return
	}

	result := a.actions.ChangePassword(r.Context(), sess.Data.UserID,
		body.CurrentPassword, body.NewPassword, body.RevokeOtherSessions)
	writeResult(w, r, result)
}

func (a *API) handleSendVerificationOtp(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if !decodeOrFail(w, r, &body) {
		return
	}
	r = requestContext(r)
	writeResult(w, r, a.actions.SendVerificationOtp(r.Context(), body.Email))
}

func (a *API) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body verifyEmailRequest
	if !decodeOrFail(w, r, &body) {
		return
	}
	r = requestContext(r)
	writeResult(w, r, a.actions.VerifyEmailWithOtp(r.Context(), body.Email, body.OTP))
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if !decodeOrFail(w, r, &body) {
		return
	}
	r = requestContext(r)
	writeResult(w, r, a.actions.RequestPasswordReset(r.Context(), body.Email))
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if !decodeOrFail(w, r, &body) {
		return
	}
	r = requestContext(r)
	writeResult(w, r, a.actions.ResetPassword(r.Context(), body.Token, body.NewPassword))
}
