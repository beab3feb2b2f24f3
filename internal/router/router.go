// Package router wires the HTTP endpoints of the service: item CRUD behind
// authentication, user registration, session login and a storage health
// check. It owns request decoding/validation and the mapping of service
// errors onto HTTP statuses.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/itemstore/internal/auth"
	"github.com/patric-chuzhbe/itemstore/internal/authenticator"
	"github.com/patric-chuzhbe/itemstore/internal/gzippedhttp"
	"github.com/patric-chuzhbe/itemstore/internal/logger"
	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/service"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

type sessionIssuer interface {
	VerifyCredentials(ctx context.Context, username, plaintext string) (*user.User, error)
	IssueSessionToken(username string) (string, error)
}

type router struct {
	svc      *service.Service
	sessions sessionIssuer
	validate *validator.Validate
}

// New builds the chi mux with logging, gzip and authentication middleware.
func New(
	svc *service.Service,
	authMiddleware authenticator.Authenticator,
	sessions sessionIssuer,
) http.Handler {
	theRouter := &router{
		svc:      svc,
		sessions: sessions,
		validate: validator.New(),
	}

	mux := chi.NewRouter()
	mux.Use(logger.WithLoggingHTTPMiddleware)
	mux.Use(gzippedhttp.UngzipRequest)
	mux.Use(gzippedhttp.GzipResponse)

	mux.Get(`/ping`, theRouter.getPing)
	mux.Post(`/api/users`, theRouter.postUsers)
	mux.Post(`/api/login`, theRouter.postLogin)

	mux.Group(func(protected chi.Router) {
		protected.Use(authMiddleware.RequireUser)
		protected.Post(`/api/items`, theRouter.postItems)
		protected.Get(`/api/items`, theRouter.getItems)
		protected.Get(`/api/items/{id}`, theRouter.getItemByID)
		protected.Put(`/api/items/{id}`, theRouter.putItemByID)
		protected.Delete(`/api/items/{id}`, theRouter.deleteItemByID)
		protected.Get(`/api/users/me`, theRouter.getCurrentUser)
	})

	return mux
}

func writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response payload: ", zap.Error(err))
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}

func (rt *router) writeError(response http.ResponseWriter, err error) {
	statusCode := statusFromError(err)
	if statusCode == http.StatusInternalServerError {
		logger.Log.Debugln("Internal error while handling the request: ", zap.Error(err))
	}
	writeJSON(response, statusCode, models.StatusResponse{Status: http.StatusText(statusCode)})
}

func (rt *router) decodeAndValidate(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return err
	}

	return rt.validate.Struct(target)
}

func itemIDFromRequest(request *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
}

func (rt *router) getPing(response http.ResponseWriter, request *http.Request) {
	if err := rt.svc.Ping(request.Context()); err != nil {
		rt.writeError(response, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

func (rt *router) postUsers(response http.ResponseWriter, request *http.Request) {
	var registerRequest models.RegisterUserRequest
	if err := rt.decodeAndValidate(request, &registerRequest); err != nil {
		response.WriteHeader(http.StatusBadRequest)
		return
	}

	usr, err := rt.svc.RegisterUser(request.Context(), registerRequest.Username, registerRequest.Password)
	if err != nil {
		rt.writeError(response, err)
		return
	}

	// The password hash is excluded by the model's serialization rules.
	writeJSON(response, http.StatusCreated, usr)
}

func (rt *router) postLogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.LoginRequest
	if err := rt.decodeAndValidate(request, &loginRequest); err != nil {
		response.WriteHeader(http.StatusBadRequest)
		return
	}

	usr, err := rt.sessions.VerifyCredentials(request.Context(), loginRequest.Username, loginRequest.Password)
	if err != nil {
		rt.writeError(response, err)
		return
	}

	token, err := rt.sessions.IssueSessionToken(usr.Username)
	if err != nil {
		rt.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.SessionResponse{Token: token})
}

func (rt *router) postItems(response http.ResponseWriter, request *http.Request) {
	var createRequest models.CreateItemRequest
	if err := rt.decodeAndValidate(request, &createRequest); err != nil {
		response.WriteHeader(http.StatusBadRequest)
		return
	}

	item, err := rt.svc.CreateItem(request.Context(), createRequest.ID, createRequest.Message)
	if err != nil {
		rt.writeError(response, err)
		return
	}

	// The response carries the id actually assigned, which may differ from
	// the requested one.
	writeJSON(response, http.StatusCreated, item)
}

func (rt *router) getItems(response http.ResponseWriter, request *http.Request) {
	var items []models.Item
	var err error

	if message := request.URL.Query().Get("message"); message != "" {
		items, err = rt.svc.FindItemsByMessage(request.Context(), message)
	} else {
		items, err = rt.svc.ListItems(request.Context())
	}
	if err != nil {
		rt.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, items)
}

func (rt *router) getItemByID(response http.ResponseWriter, request *http.Request) {
	id, err := itemIDFromRequest(request)
	if err != nil {
		response.WriteHeader(http.StatusBadRequest)
		return
	}

	item, err := rt.svc.GetItem(request.Context(), id)
	if err != nil {
		rt.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, item)
}

func (rt *router) putItemByID(response http.ResponseWriter, request *http.Request) {
	id, err := itemIDFromRequest(request)
	if err != nil {
		response.WriteHeader(http.StatusBadRequest)
		return
	}

	var updateRequest models.UpdateItemRequest
	if err := json.NewDecoder(request.Body).Decode(&updateRequest); err != nil {
		response.WriteHeader(http.StatusBadRequest)
		return
	}

	item, err := rt.svc.UpdateItem(request.Context(), id, updateRequest.Message)
	if err != nil {
		rt.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, item)
}

func (rt *router) deleteItemByID(response http.ResponseWriter, request *http.Request) {
	id, err := itemIDFromRequest(request)
	if err != nil {
		response.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := rt.svc.DeleteItem(request.Context(), id); err != nil {
		rt.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.StatusResponse{Status: "success"})
}

func (rt *router) getCurrentUser(response http.ResponseWriter, request *http.Request) {
	username, ok := request.Context().Value(auth.UsernameKey).(string)
	if !ok || username == "" {
		response.Header().Set("WWW-Authenticate", `Basic realm="itemstore"`)
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	usr, err := rt.svc.GetCurrentUser(request.Context(), username)
	if err != nil {
		rt.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, usr)
}
