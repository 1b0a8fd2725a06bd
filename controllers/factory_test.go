package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tours/models"
)

func withID(req *http.Request, id string) *http.Request {
	return mux.SetURLVars(req, map[string]string{"id": id})
}

func TestGetOneRejectsInvalidIdentifier(t *testing.T) {
	eh := NewErrorHandler(zerolog.Nop(), true, nil)
	handler := GetOne[models.Tour](eh, nil, nil)

	req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/tours/123", nil), "123")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOneRejectsInvalidIdentifier(t *testing.T) {
	eh := NewErrorHandler(zerolog.Nop(), true, nil)
	handler := UpdateOne[models.Tour](eh, nil)

	req := withID(httptest.NewRequest(http.MethodPatch, "/api/v1/tours/123", strings.NewReader(`{"price":400}`)), "123")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOneRejectsInvalidIdentifier(t *testing.T) {
	eh := NewErrorHandler(zerolog.Nop(), true, nil)
	handler := DeleteOne[models.Tour](eh, nil)

	req := withID(httptest.NewRequest(http.MethodDelete, "/api/v1/tours/not-hex", nil), "not-hex")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOneRejectsMalformedBody(t *testing.T) {
	eh := NewErrorHandler(zerolog.Nop(), true, nil)
	handler := CreateOne[models.Tour](eh, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tours", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Invalid input", body["message"])
}

func TestSuccessEnvelopeShape(t *testing.T) {
	rec := httptest.NewRecorder()

	success(rec, http.StatusOK, map[string]string{"name": "The Forest Hiker"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	inner := data["data"].(map[string]interface{})
	assert.Equal(t, "The Forest Hiker", inner["name"])
}
