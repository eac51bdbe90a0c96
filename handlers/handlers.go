package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/report"
	"github.com/ray-remotestate/tableside/restaurant"
	"github.com/ray-remotestate/tableside/utils"
)

// AuthConfig holds the staff credentials. Empty hashes disable the matching
// login.
type AuthConfig struct {
	Secret      string
	StaffHash   string
	ManagerHash string
	TokenTTL    time.Duration
}

type Handler struct {
	svc      *restaurant.Service
	auth     AuthConfig
	archiver report.Archiver
	log      *logrus.Entry
}

// New builds the API handlers. archiver may be nil.
func New(svc *restaurant.Service, auth AuthConfig, archiver report.Archiver, log *logrus.Entry) *Handler {
	return &Handler{
		svc:      svc,
		auth:     auth,
		archiver: archiver,
		log:      log.WithField("component", "http"),
	}
}

// fail maps service errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, restaurant.ErrValidation), errors.Is(err, utils.ErrNoBody):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, restaurant.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads the request body, answering 400 itself when it cannot.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"alive": true})
}
