package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/imagehash"
	"whatsapp-fx/internal/models"

	"github.com/google/uuid"
)

type fakeHashStore struct {
	mu      sync.Mutex
	records []*models.ImageHashRecord
	err     error
	scans   int
	// onScan runs at the start of every scan.
	onScan func()

	// detections and transactions receive the other parts of a submission.
	detections   *fakeDetectionStore
	transactions *fakeTransactionStore
}

// RecordSubmission checks every part of the write before applying any of
// it, so a failure leaves all three stores untouched.
func (f *fakeHashStore) RecordSubmission(ctx context.Context, rec *models.ImageHashRecord, det *models.DuplicateDetection, receipt *models.ReceiptAttachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}

	if det != nil {
		f.detections.mu.Lock()
		defer f.detections.mu.Unlock()
		if f.detections.err != nil {
			return fmt.Errorf("create detection: %w", f.detections.err)
		}
	}

	var tx *models.Transaction
	if receipt != nil {
		f.transactions.mu.Lock()
		defer f.transactions.mu.Unlock()
		if f.transactions.writeErr != nil {
			return fmt.Errorf("attach receipt: %w", f.transactions.writeErr)
		}
		if receipt.From.IsTerminal() {
			return common.InvalidInput("transaction %s is %s", receipt.TransactionID, receipt.From)
		}
		stored, ok := f.transactions.txs[receipt.TransactionID]
		if !ok {
			return common.ErrNotFound
		}
		if hook := f.transactions.beforeCAS; hook != nil {
			f.transactions.beforeCAS = nil
			hook(stored)
		}
		if stored.Status != receipt.From {
			return fmt.Errorf("attach receipt: %w", common.ErrStaleStatus)
		}
		tx = stored
	}

	cp := *rec
	f.records = append(f.records, &cp)
	if det != nil {
		d := *det
		f.detections.detections[det.ID] = &d
	}
	if tx != nil {
		tx.Status = receipt.To
		tx.ReceiptImageURL = receipt.ImageURL
		if receipt.PaymentReference != "" {
			tx.PaymentReference = receipt.PaymentReference
		}
	}
	return nil
}

func (f *fakeHashStore) GetByCryptographicHash(ctx context.Context, hash string) (*models.ImageHashRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var best *models.ImageHashRecord
	for _, r := range f.records {
		if r.CryptographicHash == hash && (best == nil || r.CreatedAt.Before(best.CreatedAt)) {
			best = r
		}
	}
	if best == nil {
		return nil, common.ErrNotFound
	}
	return best, nil
}

func (f *fakeHashStore) ScanAll(ctx context.Context) ([]*models.ImageHashRecord, error) {
	if f.onScan != nil {
		f.onScan()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	out := append([]*models.ImageHashRecord(nil), f.records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeDetectionStore struct {
	mu         sync.Mutex
	detections map[uuid.UUID]*models.DuplicateDetection
	err        error
}

func newFakeDetectionStore() *fakeDetectionStore {
	return &fakeDetectionStore{detections: map[uuid.UUID]*models.DuplicateDetection{}}
}

// put seeds a detection directly.
func (f *fakeDetectionStore) put(d *models.DuplicateDetection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.detections[d.ID] = &cp
}

func (f *fakeDetectionStore) GetByID(_ context.Context, id uuid.UUID) (*models.DuplicateDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.detections[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDetectionStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.DetectionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.detections[id]
	if !ok {
		return common.ErrNotFound
	}
	d.Status = status
	return nil
}

func (f *fakeDetectionStore) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.DuplicateDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DuplicateDetection
	for _, d := range f.detections {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeDetectionStore) ListSince(_ context.Context, since time.Time) ([]*models.DuplicateDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DuplicateDetection
	for _, d := range f.detections {
		if !d.DetectedAt.Before(since) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}

func (f *fakeDetectionStore) DeleteDetectedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for id, d := range f.detections {
		if d.DetectedAt.Before(cutoff) {
			delete(f.detections, id)
			n++
		}
	}
	return n, nil
}

type fakeTransactionStore struct {
	mu  sync.Mutex
	txs map[uuid.UUID]*models.Transaction
	err error
	// writeErr fails the receipt part of a submission write.
	writeErr error
	// beforeCAS runs once before the next compare-and-set or receipt
	// attachment, to simulate a concurrent writer.
	beforeCAS func(tx *models.Transaction)
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{txs: map[uuid.UUID]*models.Transaction{}}
}

func (f *fakeTransactionStore) put(tx *models.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tx
	f.txs[tx.ID] = &cp
}

func (f *fakeTransactionStore) status(id uuid.UUID) models.TransactionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txs[id].Status
}

func (f *fakeTransactionStore) Create(_ context.Context, tx *models.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.put(tx)
	return nil
}

func (f *fakeTransactionStore) GetByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	tx, ok := f.txs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeTransactionStore) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to models.TransactionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	tx, ok := f.txs[id]
	if !ok {
		return false, common.ErrNotFound
	}
	if hook := f.beforeCAS; hook != nil {
		f.beforeCAS = nil
		hook(tx)
	}
	if tx.Status != from {
		return false, nil
	}
	tx.Status = to
	return true, nil
}

func (f *fakeTransactionStore) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Transaction
	for _, tx := range f.txs {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeContacts struct {
	users map[uuid.UUID]*models.User
	err   error
}

func (f *fakeContacts) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *fakeContacts) Create(_ context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	if f.users == nil {
		f.users = map[uuid.UUID]*models.User{}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeContacts) GetByPhoneNumber(_ context.Context, phone string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

type sentMessage struct {
	to   string
	body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) SendText(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return nil
}

// fakeHasher maps image bytes to preset hashes; unknown bytes are undecodable.
type fakeHasher struct {
	hashes map[string]imagehash.Hashes
}

func (f *fakeHasher) Compute(data []byte) (imagehash.Hashes, error) {
	h, ok := f.hashes[string(data)]
	if !ok {
		return imagehash.Hashes{}, imagehash.ErrUndecodableImage
	}
	return h, nil
}
