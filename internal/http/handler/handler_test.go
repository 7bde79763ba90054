package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"newsletterapi/internal/model"
	"newsletterapi/internal/service"
	serviceMocks "newsletterapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db down"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func subscribeRequest(name, email string) *http.Request {
	form := url.Values{}
	form.Set("name", name)
	form.Set("email", email)
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func TestSubscribe(t *testing.T) {
	mockSvc := new(serviceMocks.MockSubscriptionService)
	app := fiber.New()
	app.Post("/subscriptions", Subscribe(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Subscribe", mock.Anything, "Ursula Le Guin", "ursula@gmail.com").
			Return(&model.Subscriber{
				ID:     uuid.New().String(),
				Email:  "ursula@gmail.com",
				Name:   "Ursula Le Guin",
				Status: model.StatusPendingConfirmation,
			}, nil).Once()

		resp, _ := app.Test(subscribeRequest("Ursula Le Guin", "ursula@gmail.com"))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var sub model.Subscriber
		json.NewDecoder(resp.Body).Decode(&sub)
		assert.Equal(t, "ursula@gmail.com", sub.Email)
		assert.Equal(t, model.StatusPendingConfirmation, sub.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid name", func(t *testing.T) {
		mockSvc.On("Subscribe", mock.Anything, "", "ursula@gmail.com").
			Return(nil, service.ErrInvalidName).Once()

		resp, _ := app.Test(subscribeRequest("", "ursula@gmail.com"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_NAME", body.Error.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		mockSvc.On("Subscribe", mock.Anything, "Ursula", "not-an-email").
			Return(nil, service.ErrInvalidEmail).Once()

		resp, _ := app.Test(subscribeRequest("Ursula", "not-an-email"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_EMAIL", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Subscribe", mock.Anything, "Ursula", "ursula@gmail.com").
			Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(subscribeRequest("Ursula", "ursula@gmail.com"))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	})
}

func TestConfirmSubscription(t *testing.T) {
	mockSvc := new(serviceMocks.MockSubscriptionService)
	app := fiber.New()
	app.Get("/subscriptions/confirm", ConfirmSubscription(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Confirm", mock.Anything, "valid-token").Return(nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token=valid-token", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "confirmed", body["status"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "TOKEN_REQUIRED", body.Error.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		mockSvc.On("Confirm", mock.Anything, "bogus").Return(service.ErrTokenNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token=bogus", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "TOKEN_UNKNOWN", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Confirm", mock.Anything, "valid-token").Return(errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token=valid-token", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestListSubscribers(t *testing.T) {
	mockSvc := new(serviceMocks.MockSubscriptionService)
	app := fiber.New()
	app.Get("/subscriptions", ListSubscribers(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.SubscriberListResult{
			Items: []model.Subscriber{{ID: uuid.New().String(), Email: "ursula@gmail.com", Status: model.StatusConfirmed}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/subscriptions?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.SubscriberListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/subscriptions?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/subscriptions?offset=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_OFFSET", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestPublishIssue(t *testing.T) {
	mockSvc := new(serviceMocks.MockNewsletterService)
	app := fiber.New()
	app.Post("/newsletters", PublishIssue(mockSvc))

	publishReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/newsletters", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return req
	}

	t.Run("success", func(t *testing.T) {
		issueID := uuid.New().String()
		mockSvc.On("Publish", mock.Anything, "Issue #1", "plain body", "<p>html body</p>").
			Return(&service.IssueResult{
				Issue: model.NewsletterIssue{ID: issueID, Title: "Issue #1"},
				Stats: model.DeliveryStats{Pending: 5},
			}, nil).Once()

		resp, _ := app.Test(publishReq(`{"title":"Issue #1","text_content":"plain body","html_content":"<p>html body</p>"}`))

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var result service.IssueResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, issueID, result.Issue.ID)
		assert.Equal(t, 5, result.Stats.Pending)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp, _ := app.Test(publishReq(`{not json`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_BODY", body.Error.Code)
	})

	t.Run("missing content", func(t *testing.T) {
		mockSvc.On("Publish", mock.Anything, "", "", "").
			Return(nil, service.ErrIssueContentMissing).Once()

		resp, _ := app.Test(publishReq(`{}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "CONTENT_REQUIRED", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Publish", mock.Anything, "Issue #1", "plain body", "<p>html body</p>").
			Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(publishReq(`{"title":"Issue #1","text_content":"plain body","html_content":"<p>html body</p>"}`))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetIssue(t *testing.T) {
	mockSvc := new(serviceMocks.MockNewsletterService)
	app := fiber.New()
	app.Get("/newsletters/:id", GetIssue(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(&service.IssueResult{
			Issue: model.NewsletterIssue{ID: id, Title: "Issue #1"},
			Stats: model.DeliveryStats{Sent: 3},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/newsletters/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.IssueResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.Issue.ID)
		assert.Equal(t, 3, result.Stats.Sent)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/newsletters/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_ID", body.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrIssueNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/newsletters/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestGetIssueArchive(t *testing.T) {
	mockSvc := new(serviceMocks.MockNewsletterService)
	app := fiber.New()
	app.Get("/newsletters/:id/archive", GetIssueArchive(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("ArchiveURL", mock.Anything, id).
			Return("https://minio.local/issues/"+id+".html?sig=abc", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/newsletters/"+id+"/archive", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Contains(t, body["url"], id)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/newsletters/not-a-uuid/archive", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_ID", body.Error.Code)
	})

	t.Run("no archive", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("ArchiveURL", mock.Anything, id).Return("", service.ErrArchiveNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/newsletters/"+id+"/archive", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "ARCHIVE_NOT_FOUND", body.Error.Code)
	})

	t.Run("unknown issue", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("ArchiveURL", mock.Anything, id).Return("", service.ErrIssueNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/newsletters/"+id+"/archive", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.ErrUnauthorized
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body errorPayload
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}
