package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store implementation must
// share. Emails and ids are randomized so the suite can run against a
// database that already holds data.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	newOwner := func(t *testing.T) *model.Account {
		owner := &model.Account{
			Name:  "Owner",
			Email: "owner-" + uuid.NewString()[:8] + "@acme.io",
			Role:  model.RoleOwner,
		}
		owner.ApplyOwnerDefaults()
		require.NoError(t, s.CreateAccount(ctx, owner))
		return owner
	}
	newMember := func(t *testing.T) *model.Account {
		member := &model.Account{
			Name:  "Member",
			Email: "member-" + uuid.NewString()[:8] + "@acme.io",
			Role:  model.RoleMember,
		}
		member.ApplyMemberDefaults()
		require.NoError(t, s.CreateAccount(ctx, member))
		return member
	}

	t.Run("accounts", func(t *testing.T) {
		owner := newOwner(t)
		require.NotEmpty(t, owner.ID)

		dup := &model.Account{Email: owner.Email, Role: model.RoleMember}
		assert.ErrorIs(t, s.CreateAccount(ctx, dup), ErrDuplicate)

		got, err := s.GetAccountByEmail(ctx, owner.Email)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.ID)
		assert.Equal(t, model.DefaultPackageLimit, got.PackageLimit)

		_, err = s.GetAccountByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		got.Name = "Renamed"
		got.CompanyName = "Acme " + suffix
		require.NoError(t, s.UpdateProfile(ctx, got))
		got, err = s.GetAccountByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "Acme "+suffix, got.CompanyName)
	})

	t.Run("affiliation set semantics and recount", func(t *testing.T) {
		owner := newOwner(t)
		m1 := newMember(t)
		m2 := newMember(t)
		newMember(t) // unrelated

		require.NoError(t, s.AddAffiliation(ctx, m1.ID, owner.ID))
		require.NoError(t, s.AddAffiliation(ctx, m1.ID, owner.ID))
		require.NoError(t, s.AddAffiliation(ctx, m2.ID, owner.ID))

		got, err := s.GetAccountByID(ctx, m1.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{owner.ID}, []string(got.AffiliatedCompanies))

		count, err := s.CountAffiliatedMembers(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		members, err := s.ListAccounts(ctx, AccountFilter{Role: model.RoleMember, AffiliatedWith: owner.ID})
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, m1.ID, members[0].ID)
		assert.Equal(t, m2.ID, members[1].ID)

		require.NoError(t, s.RemoveAffiliation(ctx, m2.ID, owner.ID))
		count, err = s.CountAffiliatedMembers(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		require.NoError(t, s.SetCurrentEmployees(ctx, owner.ID, int(count)))
		got, err = s.GetAccountByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentEmployees)

		assert.ErrorIs(t, s.AddAffiliation(ctx, uuid.NewString(), owner.ID), ErrNotFound)
	})

	t.Run("subscription history appends", func(t *testing.T) {
		owner := newOwner(t)
		start := time.Now().UTC().Truncate(time.Second)

		for _, tier := range []string{"standard", "premium"} {
			err := s.ApplySubscription(ctx, owner.Email, tier, 20, start,
				model.SubscriptionEntry{Tier: tier, Amount: "15", Date: start})
			require.NoError(t, err)
		}

		got, err := s.GetAccountByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "premium", got.Subscription)
		assert.Equal(t, 20, got.PackageLimit)
		require.Len(t, got.SubscriptionHistory, 2)
		assert.Equal(t, "standard", got.SubscriptionHistory[0].Tier)
		assert.Equal(t, "premium", got.SubscriptionHistory[1].Tier)

		err = s.ApplySubscription(ctx, "nobody-"+suffix+"@acme.io", "basic", 5, start, model.SubscriptionEntry{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("items", func(t *testing.T) {
		owner := newOwner(t)
		base := time.Now().Add(-time.Hour)
		var ids []string
		for i, rt := range []model.ReturnType{model.Returnable, model.NonReturnable, model.Returnable} {
			item := &model.Item{
				Name:       "Laptop",
				Quantity:   3,
				ReturnType: rt,
				Status:     model.ItemStatusAvailable,
				CompanyID:  owner.ID,
				CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, s.CreateItem(ctx, item))
			ids = append(ids, item.ID)
		}

		items, err := s.ListItems(ctx, ItemFilter{CompanyID: owner.ID})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, ids[2], items[0].ID)
		assert.Equal(t, ids[0], items[2].ID)

		items, err = s.ListItems(ctx, ItemFilter{CompanyID: owner.ID, ReturnType: model.NonReturnable})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, ids[1], items[0].ID)

		qty, err := s.DecrementQuantity(ctx, ids[0], 1)
		require.NoError(t, err)
		assert.Equal(t, 2, qty)

		name := "Desktop"
		updated, err := s.UpdateItem(ctx, ids[0], model.ItemPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Desktop", updated.Name)
		assert.Equal(t, 2, updated.Quantity)

		require.NoError(t, s.DeleteItem(ctx, ids[0]))
		_, err = s.GetItem(ctx, ids[0])
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteItem(ctx, ids[0]), ErrNotFound)
		_, err = s.DecrementQuantity(ctx, ids[0], 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("requests", func(t *testing.T) {
		owner := newOwner(t)
		email := "req-" + suffix + "@acme.io"
		first := &model.Request{EmployeeEmail: email, ItemID: uuid.NewString(), CompanyID: owner.ID,
			Status: model.RequestPending, CreatedAt: time.Now().Add(-time.Minute)}
		second := &model.Request{EmployeeEmail: email, ItemID: uuid.NewString(), CompanyID: owner.ID,
			Status: model.RequestPending, CreatedAt: time.Now()}
		require.NoError(t, s.CreateRequest(ctx, first))
		require.NoError(t, s.CreateRequest(ctx, second))

		list, err := s.ListRequests(ctx, RequestFilter{EmployeeEmail: email})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)

		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, s.MarkApproved(ctx, first.ID, at))
		got, err := s.GetRequest(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestApproved, got.Status)
		require.NotNil(t, got.ApprovedAt)

		pending, err := s.CountRequests(ctx, RequestFilter{CompanyID: owner.ID, Status: model.RequestPending})
		require.NoError(t, err)
		assert.Equal(t, int64(1), pending)

		returned := model.RequestReturned
		updated, err := s.UpdateRequest(ctx, first.ID, model.RequestPatch{Status: &returned})
		require.NoError(t, err)
		assert.Equal(t, model.RequestReturned, updated.Status)

		_, err = s.UpdateRequest(ctx, uuid.NewString(), model.RequestPatch{Status: &returned})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("notifications read state", func(t *testing.T) {
		recipient := uuid.NewString()
		other := uuid.NewString()
		batch := []*model.Notification{
			{RecipientID: recipient, CompanyID: "t-" + suffix, Type: model.NotificationAssetAdded, Message: "a"},
			{RecipientID: recipient, CompanyID: "t-" + suffix, Type: model.NotificationAssetAdded, Message: "b"},
			{RecipientID: other, CompanyID: "t-" + suffix, Type: model.NotificationAssetAdded, Message: "c"},
		}
		require.NoError(t, s.InsertNotifications(ctx, batch))

		unread, err := s.CountUnread(ctx, recipient)
		require.NoError(t, err)
		assert.Equal(t, int64(2), unread)

		added, err := s.AddReader(ctx, batch[0].ID, recipient)
		require.NoError(t, err)
		assert.True(t, added)
		added, err = s.AddReader(ctx, batch[0].ID, recipient)
		require.NoError(t, err)
		assert.False(t, added)

		got, err := s.GetNotification(ctx, batch[0].ID)
		require.NoError(t, err)
		assert.Equal(t, []string{recipient}, []string(got.ReadBy))

		modified, err := s.MarkAllRead(ctx, recipient)
		require.NoError(t, err)
		assert.Equal(t, int64(1), modified)

		unread, err = s.CountUnread(ctx, recipient)
		require.NoError(t, err)
		assert.Equal(t, int64(0), unread)

		assert.ErrorIs(t, s.DeleteNotification(ctx, batch[2].ID, recipient), ErrNotFound)
		require.NoError(t, s.DeleteNotification(ctx, batch[2].ID, other))

		cleared, err := s.DeleteRead(ctx, recipient)
		require.NoError(t, err)
		assert.Equal(t, int64(2), cleared)

		tenant, err := s.ListNotifications(ctx, NotificationFilter{CompanyID: "t-" + suffix})
		require.NoError(t, err)
		assert.Empty(t, tenant)
	})

	t.Run("billing", func(t *testing.T) {
		id := "tier-" + suffix
		require.NoError(t, s.UpsertPackage(ctx, &model.Package{ID: id, Name: "Tier", EmployeeLimit: 7, Price: decimal.NewFromInt(9)}))
		require.NoError(t, s.UpsertPackage(ctx, &model.Package{ID: id, Name: "Tier", EmployeeLimit: 8, Price: decimal.NewFromInt(9)}))
		pkg, err := s.GetPackage(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 8, pkg.EmployeeLimit)

		session := "cs_" + suffix
		email := "billing-" + suffix + "@acme.io"
		require.NoError(t, s.CreatePayment(ctx, &model.Payment{SessionID: session, OwnerEmail: email,
			PackageID: id, Amount: decimal.RequireFromString("9.00"), Status: model.PaymentStatusPaid}))
		err = s.CreatePayment(ctx, &model.Payment{SessionID: session, OwnerEmail: email, PackageID: id})
		assert.ErrorIs(t, err, ErrDuplicate)

		payment, err := s.GetPaymentBySession(ctx, session)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(9).Equal(payment.Amount))

		payments, err := s.ListPayments(ctx, email)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
	})
}
