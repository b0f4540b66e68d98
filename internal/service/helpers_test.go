package service

import (
	"context"
	"testing"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store         *store.MemoryStore
	claims        *store.MemoryClaimStore
	directory     *DirectoryService
	notifications *NotificationService
	inventory     *InventoryService
	requests      *RequestService
	billing       *BillingService
}

func newTestEnv(t *testing.T, checkout CheckoutProvider) *testEnv {
	t.Helper()
	log := zap.NewNop()
	s := store.NewMemoryStore()
	claims := store.NewMemoryClaimStore()

	directory := NewDirectoryService(s, log)
	notifications := NewNotificationService(directory, s, s, log)
	inventory := NewInventoryService(directory, notifications, s, log)
	requests := NewRequestService(directory, inventory, notifications, s, s, log)
	billing := NewBillingService(s, s, claims, checkout, BillingOptions{}, log)
	require.NoError(t, billing.SeedPackages(context.Background(), config.DefaultPackages()))

	return &testEnv{
		store:         s,
		claims:        claims,
		directory:     directory,
		notifications: notifications,
		inventory:     inventory,
		requests:      requests,
		billing:       billing,
	}
}

func (e *testEnv) owner(t *testing.T, email string) *model.Account {
	t.Helper()
	a, err := e.directory.CreateAccount(context.Background(), AccountInput{
		Name:        "Owner " + email,
		Email:       email,
		Password:    "secret",
		Role:        "owner",
		CompanyName: "Company " + email,
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) member(t *testing.T, email string) *model.Account {
	t.Helper()
	a, err := e.directory.CreateAccount(context.Background(), AccountInput{
		Name:  "Member " + email,
		Email: email,
		Role:  "member",
	})
	require.NoError(t, err)
	return a
}

// affiliate joins member to owner's tenant and recounts, as an approval would
func (e *testEnv) affiliate(t *testing.T, member, owner *model.Account) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.AddAffiliation(ctx, member.ID, owner.ID))
	_, err := e.directory.RecountMembers(ctx, owner.ID)
	require.NoError(t, err)
}

func (e *testEnv) item(t *testing.T, owner *model.Account, name string, qty int) *model.Item {
	t.Helper()
	res, err := e.inventory.AddItem(context.Background(), ItemInput{
		Name:       name,
		Type:       "Electronics",
		Quantity:   qty,
		ReturnType: model.Returnable,
	}, owner.Email)
	require.NoError(t, err)
	return res.Item
}

func (e *testEnv) reload(t *testing.T, id string) *model.Account {
	t.Helper()
	a, err := e.store.GetAccountByID(context.Background(), id)
	require.NoError(t, err)
	return a
}
