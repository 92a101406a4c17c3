package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"billdue-backend-go/internal/models"
)

// Ensure FirestoreBillRepository implements BillRepository.
var _ BillRepository = (*FirestoreBillRepository)(nil)

// billDocument is the Firestore wire representation of a bill. Amounts
// travel as decimal text and dates as RFC 3339 strings.
type billDocument struct {
	Name             string `firestore:"name"`
	Amount           string `firestore:"amount"`
	Frequency        string `firestore:"frequency"`
	NextDueDate      string `firestore:"nextDueDate"`
	NotificationTime string `firestore:"notificationTime"`
	Note             string `firestore:"note,omitempty"`
	AutoMarkPaid     bool   `firestore:"autoMarkPaid"`
	NotifyUntilPaid  bool   `firestore:"notifyUntilPaid"`
	IsPaid           bool   `firestore:"isPaid"`
	CreatedAt        string `firestore:"createdAt"`
	UpdatedAt        string `firestore:"updatedAt"`
}

// FirestoreBillRepository stores one owner's bills under
// users/{ownerID}/bills.
type FirestoreBillRepository struct {
	client  *firestore.Client
	ownerID string
}

// NewFirestoreBillRepository creates a repository bound to the given
// owner.
func NewFirestoreBillRepository(client *firestore.Client, ownerID string) *FirestoreBillRepository {
	return &FirestoreBillRepository{client: client, ownerID: ownerID}
}

func (r *FirestoreBillRepository) bills() *firestore.CollectionRef {
	return r.client.Collection("users").Doc(r.ownerID).Collection("bills")
}

// List returns every bill of the bound owner.
func (r *FirestoreBillRepository) List(ctx context.Context) ([]models.Bill, error) {
	iter := r.bills().Documents(ctx)
	defer iter.Stop()

	var out []models.Bill
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate bills: %w", err)
		}
		var bd billDocument
		if err := doc.DataTo(&bd); err != nil {
			return nil, fmt.Errorf("failed to decode bill %s: %w", doc.Ref.ID, err)
		}
		bill, err := bd.toModel(doc.Ref.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, bill)
	}
	return out, nil
}

// Create persists a new bill, assigning a document id when none is set.
func (r *FirestoreBillRepository) Create(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = r.bills().NewDoc().ID
	}
	if _, err := r.bills().Doc(bill.ID).Set(ctx, documentFromBill(*bill)); err != nil {
		return fmt.Errorf("failed to create bill %s: %w", bill.ID, err)
	}
	return nil
}

// Update replaces an existing bill document.
func (r *FirestoreBillRepository) Update(ctx context.Context, bill models.Bill) error {
	ref := r.bills().Doc(bill.ID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("bill %s: %w", bill.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to check bill %s: %w", bill.ID, err)
	}
	if _, err := ref.Set(ctx, documentFromBill(bill)); err != nil {
		return fmt.Errorf("failed to update bill %s: %w", bill.ID, err)
	}
	return nil
}

// Delete removes a bill document.
func (r *FirestoreBillRepository) Delete(ctx context.Context, billID string) error {
	ref := r.bills().Doc(billID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("bill %s: %w", billID, ErrNotFound)
		}
		return fmt.Errorf("failed to check bill %s: %w", billID, err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete bill %s: %w", billID, err)
	}
	return nil
}

func documentFromBill(bill models.Bill) billDocument {
	return billDocument{
		Name:             bill.Name,
		Amount:           bill.Amount.String(),
		Frequency:        string(bill.Frequency),
		NextDueDate:      bill.NextDueDate.Format(time.RFC3339),
		NotificationTime: bill.NotificationTime,
		Note:             bill.Note,
		AutoMarkPaid:     bill.AutoMarkPaid,
		NotifyUntilPaid:  bill.NotifyUntilPaid,
		IsPaid:           bill.IsPaid,
		CreatedAt:        bill.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        bill.UpdatedAt.Format(time.RFC3339),
	}
}

func (bd billDocument) toModel(id string) (models.Bill, error) {
	amount, err := decimal.NewFromString(bd.Amount)
	if err != nil {
		return models.Bill{}, fmt.Errorf("bill %s has malformed amount %q: %w", id, bd.Amount, err)
	}
	frequency, err := models.ParseFrequency(bd.Frequency)
	if err != nil {
		return models.Bill{}, fmt.Errorf("bill %s: %w", id, err)
	}
	nextDue, err := time.Parse(time.RFC3339, bd.NextDueDate)
	if err != nil {
		return models.Bill{}, fmt.Errorf("bill %s has malformed due date %q: %w", id, bd.NextDueDate, err)
	}
	createdAt, _ := time.Parse(time.RFC3339, bd.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, bd.UpdatedAt)

	return models.Bill{
		ID:               id,
		Name:             bd.Name,
		Amount:           amount,
		Frequency:        frequency,
		NextDueDate:      nextDue,
		NotificationTime: bd.NotificationTime,
		Note:             bd.Note,
		AutoMarkPaid:     bd.AutoMarkPaid,
		NotifyUntilPaid:  bd.NotifyUntilPaid,
		IsPaid:           bd.IsPaid,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}
