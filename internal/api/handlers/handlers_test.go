package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/dto"
	"whatsapp-fx/internal/models"
	"whatsapp-fx/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProofs struct {
	got    service.PaymentProofInput
	result *service.PaymentProofResult
	err    error
}

func (s *stubProofs) SubmitPaymentProof(_ context.Context, in service.PaymentProofInput) (*service.PaymentProofResult, error) {
	s.got = in
	return s.result, s.err
}

type stubTransactions struct {
	tx         *models.Transaction
	transition *service.TransitionResult
	err        error
	target     models.TransactionStatus
	message    string
}

func (s *stubTransactions) CreateTransaction(_ context.Context, p service.CreateTransactionParams) (*models.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Transaction{ID: uuid.New(), UserID: p.UserID, CurrencyFrom: p.CurrencyFrom, Status: models.StatusPending}, nil
}

func (s *stubTransactions) GetTransaction(_ context.Context, _ uuid.UUID) (*models.Transaction, error) {
	return s.tx, s.err
}

func (s *stubTransactions) ListTransactions(_ context.Context, _ uuid.UUID, _, _ int) ([]*models.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Transaction{s.tx}, nil
}

func (s *stubTransactions) Transition(_ context.Context, _ uuid.UUID, target models.TransactionStatus, message string) (*service.TransitionResult, error) {
	s.target = target
	s.message = message
	return s.transition, s.err
}

type stubDetections struct {
	list     []*models.DuplicateDetection
	resolved *models.DuplicateDetection
	err      error
}

func (s *stubDetections) ListDetections(_ context.Context, _ uuid.UUID, _, _ int) ([]*models.DuplicateDetection, error) {
	return s.list, s.err
}

func (s *stubDetections) ResolveDetection(_ context.Context, _ uuid.UUID, _ models.DetectionStatus) (*models.DuplicateDetection, error) {
	return s.resolved, s.err
}

type stubContacts struct {
	user    *models.User
	created bool
	err     error
	phone   string
}

func (s *stubContacts) RegisterContact(_ context.Context, phone, _ string) (*models.User, bool, error) {
	s.phone = phone
	return s.user, s.created, s.err
}

func (s *stubContacts) GetContact(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

func newApp(proofs *stubProofs, txs *stubTransactions, dets *stubDetections) *fiber.App {
	logger := zap.NewNop()
	app := fiber.New()
	v1 := app.Group("/api/v1")
	v1.Post("/payment-proofs", NewPaymentProofHandler(proofs, logger).SubmitPaymentProof)

	th := NewTransactionHandler(txs, logger)
	v1.Post("/transactions", th.CreateTransaction)
	v1.Get("/transactions", th.ListTransactions)
	v1.Get("/transactions/:id", th.GetTransaction)
	v1.Post("/transactions/:id/transition", th.Transition)

	dh := NewDetectionHandler(dets, logger)
	v1.Get("/detections", dh.ListDetections)
	v1.Patch("/detections/:id", dh.UpdateDetection)
	return app
}

func jsonRequest(method, url string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", "receipt.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment-proofs", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.InvalidInput("bad hash"), fiber.StatusBadRequest},
		{common.ErrInvalidTransition, fiber.StatusBadRequest},
		{fmt.Errorf("get: %w", common.ErrNotFound), fiber.StatusNotFound},
		{fmt.Errorf("scan: %w", common.ErrStorageUnavailable), fiber.StatusServiceUnavailable},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestSubmitPaymentProof(t *testing.T) {
	matched := uuid.New()
	distance := 2
	proofs := &stubProofs{result: &service.PaymentProofResult{
		ImageURL: "/uploads/x.png",
		Detection: &service.DetectionResult{
			Classification:  service.ClassificationNear,
			MatchedRecordID: &matched,
			HammingDistance: &distance,
			HashRecordID:    uuid.New(),
		},
	}}
	app := newApp(proofs, &stubTransactions{}, &stubDetections{})

	userID := uuid.New()
	txID := uuid.New()
	resp, err := app.Test(multipartRequest(t, map[string]string{
		"user_id":           userID.String(),
		"transaction_id":    txID.String(),
		"payment_reference": "PIX-1",
		"threshold":         "3",
	}, []byte("png bytes")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body dto.PaymentProofResponse
	decode(t, resp, &body)
	assert.Equal(t, "NEAR_DUPLICATE", body.Classification)
	require.NotNil(t, body.MatchedRecordID)
	assert.Equal(t, matched.String(), *body.MatchedRecordID)
	assert.Equal(t, 2, *body.HammingDistance)
	assert.Nil(t, body.Transition)

	assert.Equal(t, userID, proofs.got.UserID)
	require.NotNil(t, proofs.got.TransactionID)
	assert.Equal(t, txID, *proofs.got.TransactionID)
	require.NotNil(t, proofs.got.Threshold)
	assert.Equal(t, 3, *proofs.got.Threshold)
	assert.Equal(t, []byte("png bytes"), proofs.got.Image)
	assert.Equal(t, "receipt.png", proofs.got.FileName)
}

func TestSubmitPaymentProof_BadRequests(t *testing.T) {
	user := uuid.New().String()
	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
	}{
		{name: "missing user", fields: map[string]string{}, file: []byte("x")},
		{name: "bad transaction", fields: map[string]string{"user_id": user, "transaction_id": "nope"}, file: []byte("x")},
		{name: "negative threshold", fields: map[string]string{"user_id": user, "threshold": "-1"}, file: []byte("x")},
		{name: "missing file", fields: map[string]string{"user_id": user}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&stubProofs{}, &stubTransactions{}, &stubDetections{})
			resp, err := app.Test(multipartRequest(t, tt.fields, tt.file))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSubmitPaymentProof_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.InvalidInput("undecodable image"), fiber.StatusBadRequest},
		{common.ErrNotFound, fiber.StatusNotFound},
		{common.ErrStorageUnavailable, fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		app := newApp(&stubProofs{err: tt.err}, &stubTransactions{}, &stubDetections{})
		resp, err := app.Test(multipartRequest(t, map[string]string{"user_id": uuid.New().String()}, []byte("x")))
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, tt.err.Error())
	}
}

func TestTransition(t *testing.T) {
	txs := &stubTransactions{transition: &service.TransitionResult{
		Success:           true,
		Applied:           true,
		PreviousStatus:    models.StatusImageReceived,
		NewStatus:         models.StatusConfirmed,
		NotificationError: fmt.Errorf("%w: whatsapp returned 500", common.ErrNotificationFailed),
	}}
	app := newApp(&stubProofs{}, txs, &stubDetections{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/transactions/"+uuid.NewString()+"/transition",
		dto.TransitionRequest{Status: "confirmed_and_money_sent_to_user", Message: "done"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.TransitionResponse
	decode(t, resp, &body)
	assert.True(t, body.Success)
	assert.False(t, body.Notified)
	assert.Equal(t, "updated_not_notified", body.Outcome)
	assert.Equal(t, "confirmed_and_money_sent_to_user", body.NewStatus)
	assert.Contains(t, body.NotificationError, "notification failed")

	assert.Equal(t, models.StatusConfirmed, txs.target)
	assert.Equal(t, "done", txs.message)
}

func TestTransition_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		status string
		err    error
		want   int
	}{
		{name: "bad id", id: "abc", status: "cancelled", want: fiber.StatusBadRequest},
		{name: "unknown status", id: uuid.NewString(), status: "refunded", want: fiber.StatusBadRequest},
		{name: "illegal edge", id: uuid.NewString(), status: "pending", err: common.ErrInvalidTransition, want: fiber.StatusBadRequest},
		{name: "missing", id: uuid.NewString(), status: "cancelled", err: common.ErrNotFound, want: fiber.StatusNotFound},
		{name: "storage down", id: uuid.NewString(), status: "cancelled", err: common.ErrStorageUnavailable, want: fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&stubProofs{}, &stubTransactions{err: tt.err}, &stubDetections{})
			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/transactions/"+tt.id+"/transition",
				dto.TransitionRequest{Status: tt.status}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestCreateAndGetTransaction(t *testing.T) {
	txID := uuid.New()
	txs := &stubTransactions{tx: &models.Transaction{ID: txID, Status: models.StatusPending, CurrencyFrom: "USD"}}
	app := newApp(&stubProofs{}, txs, &stubDetections{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
		UserID:         uuid.NewString(),
		ConversationID: uuid.NewString(),
		CurrencyFrom:   "USD",
		CurrencyTo:     "BRL",
		AmountFrom:     10,
		AmountTo:       54,
		NegotiatedRate: 5.4,
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{UserID: "x"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+txID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.TransactionResponse
	decode(t, resp, &body)
	assert.Equal(t, txID.String(), body.ID)
	assert.Equal(t, "pending", body.Status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/transactions?user_id="+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list []dto.TransactionResponse
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, txID.String(), list[0].ID)
}

func TestContacts(t *testing.T) {
	user := &models.User{ID: uuid.New(), PhoneNumber: "5511999990000"}
	contacts := &stubContacts{user: user, created: true}

	app := fiber.New()
	h := NewContactHandler(contacts, zap.NewNop())
	app.Post("/contacts", h.RegisterContact)
	app.Get("/contacts/:id", h.GetContact)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/contacts", dto.RegisterContactRequest{PhoneNumber: "+55 11 99999-0000"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "+55 11 99999-0000", contacts.phone)

	contacts.created = false
	resp, err = app.Test(jsonRequest(http.MethodPost, "/contacts", dto.RegisterContactRequest{PhoneNumber: "5511999990000"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.ContactResponse
	decode(t, resp, &body)
	assert.Equal(t, user.ID.String(), body.ID)

	contacts.err = common.ErrNotFound
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/contacts/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDetections(t *testing.T) {
	userID := uuid.New()
	det := &models.DuplicateDetection{ID: uuid.New(), UserID: userID, Status: models.DetectionActive, Hash: "ab"}
	resolved := *det
	resolved.Status = models.DetectionFalsePositive

	app := newApp(&stubProofs{}, &stubTransactions{}, &stubDetections{
		list:     []*models.DuplicateDetection{det},
		resolved: &resolved,
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/detections?user_id="+userID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list []dto.DetectionResponse
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, det.ID.String(), list[0].ID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/detections", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPatch, "/api/v1/detections/"+det.ID.String(),
		dto.UpdateDetectionRequest{Status: "false_positive"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated dto.DetectionResponse
	decode(t, resp, &updated)
	assert.Equal(t, "false_positive", updated.Status)

	resp, err = app.Test(jsonRequest(http.MethodPatch, "/api/v1/detections/"+det.ID.String(),
		dto.UpdateDetectionRequest{Status: "deleted"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
